//go:build !sqlite

package cache

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/emberops/burnoutctl/internal/model"
)

const (
	boltBucketIntegrations = "integrations" // key: provider -> Integration JSON
	boltBucketMembers      = "members"      // key: org id -> MemberSnapshot JSON
	boltBucketSession      = "session"      // key: "credential" -> sealed bearer token
	boltFileName           = "burnoutctl.bolt"
)

// Bolt is the bbolt-backed durable cache.
type Bolt struct {
	db      *bbolt.DB
	sealKey []byte
}

// OpenDurable opens the durable cache in dir.
func OpenDurable(dir string) (Durable, error) {
	path := filepath.Join(dir, boltFileName)

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{boltBucketIntegrations, boltBucketMembers, boltBucketSession} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		_ = db.Close()

		return nil, err
	}

	sealKey, err := loadOrCreateSealKey(dir)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return &Bolt{db: db, sealKey: sealKey}, nil
}

func (b *Bolt) GetIntegration(provider model.Provider) (*model.Integration, error) {
	var out *model.Integration

	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(boltBucketIntegrations)).Get([]byte(provider))
		if v == nil {
			return nil
		}

		var in model.Integration
		if err := json.Unmarshal(v, &in); err != nil {
			return err
		}

		out = &in

		return nil
	})

	return out, err
}

func (b *Bolt) PutIntegration(integration *model.Integration) error {
	if integration == nil {
		return errors.New("integration is required")
	}

	data, err := json.Marshal(integration)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketIntegrations)).Put([]byte(integration.Provider), data)
	})
}

func (b *Bolt) DeleteIntegration(provider model.Provider) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketIntegrations)).Delete([]byte(provider))
	})
}

func (b *Bolt) Integrations() ([]model.Integration, error) {
	var out []model.Integration

	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketIntegrations)).ForEach(func(k, v []byte) error {
			var in model.Integration

			if err := json.Unmarshal(v, &in); err != nil {
				return err
			}

			out = append(out, in)

			return nil
		})
	})

	return out, err
}

func (b *Bolt) GetMembers(orgID string) (*MemberSnapshot, error) {
	var out *MemberSnapshot

	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(boltBucketMembers)).Get([]byte(orgID))
		if v == nil {
			return nil
		}

		var snap MemberSnapshot
		if err := json.Unmarshal(v, &snap); err != nil {
			return err
		}

		out = &snap

		return nil
	})

	return out, err
}

func (b *Bolt) PutMembers(snapshot *MemberSnapshot) error {
	if snapshot == nil || snapshot.OrgID == "" {
		return errors.New("snapshot with org id is required")
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketMembers)).Put([]byte(snapshot.OrgID), data)
	})
}

func (b *Bolt) DeleteMembers(orgID string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketMembers)).Delete([]byte(orgID))
	})
}

func (b *Bolt) InvalidateProvider(provider model.Provider) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(boltBucketIntegrations)).Delete([]byte(provider)); err != nil {
			return err
		}

		members := tx.Bucket([]byte(boltBucketMembers))

		var stale [][]byte

		if err := members.ForEach(func(k, v []byte) error {
			var snap MemberSnapshot

			if err := json.Unmarshal(v, &snap); err != nil {
				return err
			}

			if snap.ContributedBy(provider) {
				key := make([]byte, len(k))
				copy(key, k)
				stale = append(stale, key)
			}

			return nil
		}); err != nil {
			return err
		}

		for _, k := range stale {
			if err := members.Delete(k); err != nil {
				return err
			}
		}

		return nil
	})
}

func (b *Bolt) Credential() (string, error) {
	var sealed []byte

	if err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(boltBucketSession)).Get([]byte(credentialKey))
		if v != nil {
			sealed = make([]byte, len(v))
			copy(sealed, v)
		}

		return nil
	}); err != nil {
		return "", err
	}

	if sealed == nil {
		return "", nil
	}

	plain, err := open(b.sealKey, sealed)
	if err != nil {
		return "", err
	}

	return string(plain), nil
}

func (b *Bolt) PutCredential(token string) error {
	sealed, err := seal(b.sealKey, []byte(token))
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketSession)).Put([]byte(credentialKey), sealed)
	})
}

func (b *Bolt) DeleteCredential() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketSession)).Delete([]byte(credentialKey))
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
