package registry

import (
	"time"

	"github.com/sipca/backend/internal/storage/models"
	"github.com/sipca/backend/internal/storage/sqlite"
)

// SQLiteStore persists recipients so subscriptions survive restarts. The
// database serializes writers; no extra locking needed here.
type SQLiteStore struct {
	db *sqlite.Client
}

func NewSQLiteStore(db *sqlite.Client) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Subscribe(identity, address, name string) (Recipient, error) {
	r := Recipient{
		Identity:     identity,
		Address:      address,
		Name:         name,
		SubscribedAt: time.Now(),
	}

	err := s.db.UpsertRecipient(&models.RecipientRow{
		Identity:     r.Identity,
		Address:      r.Address,
		Name:         r.Name,
		SubscribedAt: r.SubscribedAt,
	})
	if err != nil {
		return Recipient{}, err
	}

	return r, nil
}

func (s *SQLiteStore) Unsubscribe(identity string) error {
	return s.db.DeleteRecipient(identity)
}

func (s *SQLiteStore) List() ([]Recipient, error) {
	rows, err := s.db.ListRecipients()
	if err != nil {
		return nil, err
	}

	out := make([]Recipient, 0, len(rows))
	for _, row := range rows {
		out = append(out, Recipient{
			Identity:     row.Identity,
			Address:      row.Address,
			Name:         row.Name,
			SubscribedAt: row.SubscribedAt,
		})
	}
	return out, nil
}
