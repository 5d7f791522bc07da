//go:build sqlite

package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/emberops/burnoutctl/internal/model"
)

const sqliteFileName = "burnoutctl.db"

// SQLite is the sqlite-backed durable cache, selected with the `sqlite`
// build tag.
type SQLite struct {
	db      *sql.DB
	sealKey []byte
}

// OpenDurable opens the durable cache in dir.
func OpenDurable(dir string) (Durable, error) {
	path := filepath.Join(dir, sqliteFileName)

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't handle multiple writers well
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	schema := `
	CREATE TABLE IF NOT EXISTS integrations (provider TEXT PRIMARY KEY, data BLOB NOT NULL);
	CREATE TABLE IF NOT EXISTS members (org_id TEXT PRIMARY KEY, data BLOB NOT NULL);
	CREATE TABLE IF NOT EXISTS session (key TEXT PRIMARY KEY, data BLOB NOT NULL);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("creating schema: %w", err)
	}

	sealKey, err := loadOrCreateSealKey(dir)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return &SQLite{db: db, sealKey: sealKey}, nil
}

func (s *SQLite) GetIntegration(provider model.Provider) (*model.Integration, error) {
	var data []byte

	err := s.db.QueryRow(`SELECT data FROM integrations WHERE provider = ?`, string(provider)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	var in model.Integration
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}

	return &in, nil
}

func (s *SQLite) PutIntegration(integration *model.Integration) error {
	if integration == nil {
		return errors.New("integration is required")
	}

	data, err := json.Marshal(integration)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO integrations (provider, data) VALUES (?, ?)
		 ON CONFLICT(provider) DO UPDATE SET data = excluded.data`,
		string(integration.Provider), data,
	)

	return err
}

func (s *SQLite) DeleteIntegration(provider model.Provider) error {
	_, err := s.db.Exec(`DELETE FROM integrations WHERE provider = ?`, string(provider))

	return err
}

func (s *SQLite) Integrations() ([]model.Integration, error) {
	rows, err := s.db.Query(`SELECT data FROM integrations ORDER BY provider`)
	if err != nil {
		return nil, err
	}

	defer func() { _ = rows.Close() }()

	var out []model.Integration

	for rows.Next() {
		var data []byte

		if err := rows.Scan(&data); err != nil {
			return nil, err
		}

		var in model.Integration
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, err
		}

		out = append(out, in)
	}

	return out, rows.Err()
}

func (s *SQLite) GetMembers(orgID string) (*MemberSnapshot, error) {
	var data []byte

	err := s.db.QueryRow(`SELECT data FROM members WHERE org_id = ?`, orgID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	var snap MemberSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}

	return &snap, nil
}

func (s *SQLite) PutMembers(snapshot *MemberSnapshot) error {
	if snapshot == nil || snapshot.OrgID == "" {
		return errors.New("snapshot with org id is required")
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO members (org_id, data) VALUES (?, ?)
		 ON CONFLICT(org_id) DO UPDATE SET data = excluded.data`,
		snapshot.OrgID, data,
	)

	return err
}

func (s *SQLite) DeleteMembers(orgID string) error {
	_, err := s.db.Exec(`DELETE FROM members WHERE org_id = ?`, orgID)

	return err
}

func (s *SQLite) InvalidateProvider(provider model.Provider) error {
	if err := s.DeleteIntegration(provider); err != nil {
		return err
	}

	rows, err := s.db.Query(`SELECT org_id, data FROM members`)
	if err != nil {
		return err
	}

	var stale []string

	for rows.Next() {
		var (
			orgID string
			data  []byte
		)

		if err := rows.Scan(&orgID, &data); err != nil {
			_ = rows.Close()

			return err
		}

		var snap MemberSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			_ = rows.Close()

			return err
		}

		if snap.ContributedBy(provider) {
			stale = append(stale, orgID)
		}
	}

	if err := rows.Err(); err != nil {
		_ = rows.Close()

		return err
	}

	_ = rows.Close()

	for _, orgID := range stale {
		if err := s.DeleteMembers(orgID); err != nil {
			return err
		}
	}

	return nil
}

func (s *SQLite) Credential() (string, error) {
	var sealed []byte

	err := s.db.QueryRow(`SELECT data FROM session WHERE key = ?`, credentialKey).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}

	if err != nil {
		return "", err
	}

	plain, err := open(s.sealKey, sealed)
	if err != nil {
		return "", err
	}

	return string(plain), nil
}

func (s *SQLite) PutCredential(token string) error {
	sealed, err := seal(s.sealKey, []byte(token))
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO session (key, data) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data`,
		credentialKey, sealed,
	)

	return err
}

func (s *SQLite) DeleteCredential() error {
	_, err := s.db.Exec(`DELETE FROM session WHERE key = ?`, credentialKey)

	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
