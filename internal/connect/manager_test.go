package connect

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberops/burnoutctl/internal/api"
	"github.com/emberops/burnoutctl/internal/apperr"
	"github.com/emberops/burnoutctl/internal/cache"
	"github.com/emberops/burnoutctl/internal/model"
	"github.com/emberops/burnoutctl/internal/notify"
)

type fakeBackend struct {
	connectResp   *api.ConnectResponse
	connectErr    error
	exchangeResp  *api.CallbackResponse
	exchangeErr   error
	exchangeCalls atomic.Int32
	exchangeGate  chan struct{} // if set, exchange blocks until closed

	disconnectErr error
	testResp      *api.TestResponse
	statusResp    *api.StatusResponse
	renameErr     error
	renameCalls   atomic.Int32
}

func (f *fakeBackend) InitiateConnect(_ context.Context, _ model.Provider) (*api.ConnectResponse, error) {
	return f.connectResp, f.connectErr
}

func (f *fakeBackend) ExchangeCallback(_ context.Context, _ model.Provider, _, _ string) (*api.CallbackResponse, error) {
	f.exchangeCalls.Add(1)

	if f.exchangeGate != nil {
		<-f.exchangeGate
	}

	return f.exchangeResp, f.exchangeErr
}

func (f *fakeBackend) Disconnect(_ context.Context, _ model.Provider) error {
	return f.disconnectErr
}

func (f *fakeBackend) TestConnection(_ context.Context, _ model.Provider) (*api.TestResponse, error) {
	return f.testResp, nil
}

func (f *fakeBackend) Status(_ context.Context, _ model.Provider) (*api.StatusResponse, error) {
	return f.statusResp, nil
}

func (f *fakeBackend) RenameIntegration(_ context.Context, _, _ string) error {
	f.renameCalls.Add(1)

	return f.renameErr
}

func newTestManager(t *testing.T, backend *fakeBackend) (*Manager, cache.Durable, *cache.Session) {
	t.Helper()

	durable, err := cache.OpenDurable(t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() { _ = durable.Close() })

	session := cache.NewSession()
	manager := NewManager(backend, durable, session, notify.NewDispatcher(), nil)

	return manager, durable, session
}

func TestInitiateConnectStoresState(t *testing.T) {
	backend := &fakeBackend{
		connectResp: &api.ConnectResponse{AuthorizationURL: "https://auth.example/authorize?x=1", State: "s1"},
	}

	manager, _, session := newTestManager(t, backend)

	authURL, err := manager.InitiateConnect(context.Background(), model.ProviderJira)
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example/authorize?x=1", authURL)

	h := session.Handshake(model.ProviderJira)
	require.NotNil(t, h)
	assert.Equal(t, "s1", h.State)
	assert.False(t, h.Consumed)
}

func TestInitiateConnectRejectsUnknownProvider(t *testing.T) {
	manager, _, _ := newTestManager(t, &fakeBackend{})

	_, err := manager.InitiateConnect(context.Background(), model.Provider("bitbucket"))

	var verr *apperr.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCallbackSuccessRedirect(t *testing.T) {
	backend := &fakeBackend{
		exchangeResp: &api.CallbackResponse{
			RedirectURL: "/integrations?jira_connected=1",
			Integration: &model.Integration{ID: "i1", Provider: model.ProviderJira, ExternalAccountID: "cloud-1"},
		},
	}

	manager, durable, session := newTestManager(t, backend)
	session.PutHandshake(&model.Handshake{Provider: model.ProviderJira, State: "s1", StartedAt: time.Now()})

	outcome, err := manager.HandleCallback(context.Background(), model.ProviderJira, "abc", "s1", "")
	require.NoError(t, err)

	assert.Equal(t, "/integrations?jira_connected=1", outcome.RedirectTo)
	assert.True(t, outcome.Connected)
	assert.Equal(t, int32(1), backend.exchangeCalls.Load())

	// State is consumed regardless of outcome.
	assert.Nil(t, session.Handshake(model.ProviderJira))

	in, err := durable.GetIntegration(model.ProviderJira)
	require.NoError(t, err)
	require.NotNil(t, in)
	assert.Equal(t, "cloud-1", in.ExternalAccountID)
}

func TestCallbackProviderErrorSkipsExchange(t *testing.T) {
	backend := &fakeBackend{}

	manager, _, session := newTestManager(t, backend)
	session.PutHandshake(&model.Handshake{Provider: model.ProviderJira, State: "s1", StartedAt: time.Now()})

	outcome, err := manager.HandleCallback(context.Background(), model.ProviderJira, "", "", "access_denied")
	require.NoError(t, err)

	assert.Equal(t, "/integrations?jira_error=access_denied", outcome.RedirectTo)
	assert.False(t, outcome.Connected)
	assert.Equal(t, int32(0), backend.exchangeCalls.Load(), "exchange must not be called on provider error")
	assert.Nil(t, session.Handshake(model.ProviderJira), "stored state must be cleared on every exit path")
}

func TestCallbackStateMismatchProceeds(t *testing.T) {
	backend := &fakeBackend{
		exchangeResp: &api.CallbackResponse{RedirectURL: ""},
	}

	manager, _, session := newTestManager(t, backend)
	session.PutHandshake(&model.Handshake{Provider: model.ProviderJira, State: "s1", StartedAt: time.Now()})

	// Mismatched state is a warning, not a block: the server re-validates.
	outcome, err := manager.HandleCallback(context.Background(), model.ProviderJira, "abc", "s2", "")
	require.NoError(t, err)

	assert.Equal(t, int32(1), backend.exchangeCalls.Load())
	assert.Equal(t, "/integrations?jira_connected=1", outcome.RedirectTo)
}

func TestCallbackReentrancyGuard(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeBackend{
		exchangeResp: &api.CallbackResponse{},
		exchangeGate: gate,
	}

	manager, _, session := newTestManager(t, backend)
	session.PutHandshake(&model.Handshake{Provider: model.ProviderJira, State: "s1", StartedAt: time.Now()})

	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		close(started)

		_, err := manager.HandleCallback(context.Background(), model.ProviderJira, "abc", "s1", "")
		done <- err
	}()

	<-started

	// Wait until the first invocation holds the lock inside the exchange.
	require.Eventually(t, func() bool {
		return backend.exchangeCalls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	_, err := manager.HandleCallback(context.Background(), model.ProviderJira, "abc", "s1", "")
	assert.ErrorIs(t, err, apperr.ErrCallbackInProgress)

	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, int32(1), backend.exchangeCalls.Load(), "side effect must run exactly once")
}

func TestCallbackExchangeFailureRedirectsWithReason(t *testing.T) {
	backend := &fakeBackend{
		exchangeErr: &apperr.ServerError{StatusCode: 500, Detail: "exchange blew up"},
	}

	manager, _, session := newTestManager(t, backend)
	session.PutHandshake(&model.Handshake{Provider: model.ProviderSlack, State: "s1", StartedAt: time.Now()})

	outcome, err := manager.HandleCallback(context.Background(), model.ProviderSlack, "abc", "s1", "")
	require.Error(t, err)
	require.NotNil(t, outcome, "failed callbacks still land somewhere deterministic")

	assert.Contains(t, outcome.RedirectTo, "/integrations?slack_error=")
}

func TestDuplicateConnectSurfacedNotOverwritten(t *testing.T) {
	backend := &fakeBackend{
		exchangeResp: &api.CallbackResponse{
			Integration: &model.Integration{ID: "i2", Provider: model.ProviderJira, ExternalAccountID: "cloud-other"},
		},
	}

	manager, durable, session := newTestManager(t, backend)

	existing := &model.Integration{ID: "i1", Provider: model.ProviderJira, ExternalAccountID: "cloud-1", DisplayName: "Original"}
	require.NoError(t, durable.PutIntegration(existing))

	session.PutHandshake(&model.Handshake{Provider: model.ProviderJira, State: "s1", StartedAt: time.Now()})

	_, err := manager.HandleCallback(context.Background(), model.ProviderJira, "abc", "s1", "")

	var dup *apperr.DuplicateIntegrationError
	require.ErrorAs(t, err, &dup)

	in, err := durable.GetIntegration(model.ProviderJira)
	require.NoError(t, err)
	assert.Equal(t, "cloud-1", in.ExternalAccountID, "existing integration must not be overwritten")
	assert.Equal(t, "Original", in.DisplayName)
}

func TestDisconnectFailureLeavesCache(t *testing.T) {
	backend := &fakeBackend{
		disconnectErr: &apperr.NetworkError{Operation: "DELETE", Err: errors.New("connection refused")},
	}

	manager, durable, _ := newTestManager(t, backend)
	require.NoError(t, durable.PutIntegration(&model.Integration{ID: "i1", Provider: model.ProviderGitHub}))

	err := manager.Disconnect(context.Background(), model.ProviderGitHub)
	require.Error(t, err)

	in, err := durable.GetIntegration(model.ProviderGitHub)
	require.NoError(t, err)
	assert.NotNil(t, in, "no optimistic removal on failed revoke")
}

func TestDisconnectClearsProviderState(t *testing.T) {
	manager, durable, _ := newTestManager(t, &fakeBackend{})

	require.NoError(t, durable.PutIntegration(&model.Integration{ID: "i1", Provider: model.ProviderGitHub}))
	require.NoError(t, durable.PutMembers(&cache.MemberSnapshot{
		OrgID:     "org-a",
		Providers: []model.Provider{model.ProviderGitHub},
	}))

	require.NoError(t, manager.Disconnect(context.Background(), model.ProviderGitHub))

	in, _ := durable.GetIntegration(model.ProviderGitHub)
	assert.Nil(t, in)

	snap, _ := durable.GetMembers("org-a")
	assert.Nil(t, snap)
}

func TestRenameRollbackOnFailure(t *testing.T) {
	backend := &fakeBackend{
		renameErr: &apperr.ServerError{StatusCode: 500, Detail: "nope"},
	}

	manager, durable, _ := newTestManager(t, backend)
	require.NoError(t, durable.PutIntegration(&model.Integration{
		ID: "i1", Provider: model.ProviderRootly, DisplayName: "Before",
	}))

	err := manager.RenamePrimary(context.Background(), model.ProviderRootly, "i1", "After")
	require.Error(t, err)

	in, err := durable.GetIntegration(model.ProviderRootly)
	require.NoError(t, err)
	assert.Equal(t, "Before", in.DisplayName)
	assert.Empty(t, in.PendingRename, "optimistic marker must be reverted")
	assert.Equal(t, "Before", in.Name())
}

func TestRenameCommit(t *testing.T) {
	manager, durable, _ := newTestManager(t, &fakeBackend{})
	require.NoError(t, durable.PutIntegration(&model.Integration{
		ID: "i1", Provider: model.ProviderRootly, DisplayName: "Before",
	}))

	require.NoError(t, manager.RenamePrimary(context.Background(), model.ProviderRootly, "i1", "After"))

	in, err := durable.GetIntegration(model.ProviderRootly)
	require.NoError(t, err)
	assert.Equal(t, "After", in.DisplayName)
	assert.Empty(t, in.PendingRename)
}

func TestTestConnectionRefreshesPermissionsOnly(t *testing.T) {
	backend := &fakeBackend{
		testResp: &api.TestResponse{
			Success: true,
			Permissions: map[string]model.PermissionState{
				"user_access": model.PermissionGranted,
				"org_access":  model.PermissionDenied,
			},
		},
	}

	manager, durable, _ := newTestManager(t, backend)
	require.NoError(t, durable.PutIntegration(&model.Integration{
		ID: "i1", Provider: model.ProviderGitHub, DisplayName: "GH",
	}))

	resp, err := manager.TestConnection(context.Background(), model.ProviderGitHub)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	in, err := durable.GetIntegration(model.ProviderGitHub)
	require.NoError(t, err)
	assert.Equal(t, model.PermissionGranted, in.Permissions["user_access"])
	assert.Equal(t, "GH", in.DisplayName, "test must not mutate anything beyond permissions")
}
