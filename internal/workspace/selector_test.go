package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberops/burnoutctl/internal/api"
	"github.com/emberops/burnoutctl/internal/apperr"
	"github.com/emberops/burnoutctl/internal/cache"
	"github.com/emberops/burnoutctl/internal/model"
)

type fakeWorkspaceBackend struct {
	workspaces  []model.Workspace
	listErr     error
	selectErr   error
	selectCalls int
	lastSelect  string
}

func (f *fakeWorkspaceBackend) Workspaces(_ context.Context, _ model.Provider) (*api.WorkspacesResponse, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	return &api.WorkspacesResponse{Workspaces: f.workspaces}, nil
}

func (f *fakeWorkspaceBackend) SelectWorkspace(_ context.Context, _ model.Provider, workspaceID string) error {
	f.selectCalls++
	f.lastSelect = workspaceID

	return f.selectErr
}

func newTestSelector(t *testing.T, backend Backend) (*Selector, cache.Durable) {
	t.Helper()

	durable, err := cache.OpenDurable(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = durable.Close() })

	return NewSelector(backend, durable, nil, nil), durable
}

func TestListReturnsWorkspacesWithSelection(t *testing.T) {
	backend := &fakeWorkspaceBackend{
		workspaces: []model.Workspace{
			{ID: "cloud-1", Name: "Acme Prod", IsCurrentlySelected: true},
			{ID: "cloud-2", Name: "Acme Sandbox"},
		},
	}
	selector, _ := newTestSelector(t, backend)

	got, err := selector.List(context.Background(), model.ProviderJira)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsCurrentlySelected)
}

func TestListRejectsUnknownProvider(t *testing.T) {
	selector, _ := newTestSelector(t, &fakeWorkspaceBackend{})

	_, err := selector.List(context.Background(), "bitbucket")

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSelectInvalidatesProviderCache(t *testing.T) {
	backend := &fakeWorkspaceBackend{}
	selector, durable := newTestSelector(t, backend)

	// Seed state belonging to the pre-switch workspace.
	require.NoError(t, durable.PutIntegration(&model.Integration{
		ID:       "int-1",
		Provider: model.ProviderJira,
	}))
	require.NoError(t, durable.PutMembers(&cache.MemberSnapshot{
		OrgID:     "org-a",
		Providers: []model.Provider{model.ProviderJira},
		Members: []model.TeamMember{
			{NormalizedEmail: "ada@x.com"},
		},
		SyncedAt: time.Now(),
	}))

	require.NoError(t, selector.Select(context.Background(), model.ProviderJira, "cloud-2"))
	assert.Equal(t, "cloud-2", backend.lastSelect)

	integration, err := durable.GetIntegration(model.ProviderJira)
	require.NoError(t, err)
	assert.Nil(t, integration, "pre-switch integration row must not survive")

	snapshot, err := durable.GetMembers("org-a")
	require.NoError(t, err)
	assert.Nil(t, snapshot, "a fetch after the switch cannot be served by pre-switch members")
}

func TestSelectFailureLeavesCacheIntact(t *testing.T) {
	backend := &fakeWorkspaceBackend{
		selectErr: &apperr.ServerError{StatusCode: 500, Detail: "boom"},
	}
	selector, durable := newTestSelector(t, backend)

	require.NoError(t, durable.PutIntegration(&model.Integration{
		ID:       "int-1",
		Provider: model.ProviderJira,
	}))

	err := selector.Select(context.Background(), model.ProviderJira, "cloud-2")
	require.Error(t, err)

	integration, err := durable.GetIntegration(model.ProviderJira)
	require.NoError(t, err)
	assert.NotNil(t, integration, "a failed switch must not clear the cache")
}

func TestSelectRequiresWorkspaceID(t *testing.T) {
	backend := &fakeWorkspaceBackend{}
	selector, _ := newTestSelector(t, backend)

	err := selector.Select(context.Background(), model.ProviderJira, "")

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, backend.selectCalls)
}
