package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-authflow/core"
)

// AccountStore persists principals. Email uniqueness is enforced by the
// table constraint; a violated insert maps to core.ErrEmailTaken so
// concurrent sign-ups resolve deterministically.
type AccountStore struct {
	db   *bun.DB
	repo repository.Repository[*principalRecord]
}

func NewAccountStore(db *bun.DB) (*AccountStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*principalRecord](db, principalHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid principal repository wiring: %w", err)
		}
	}
	return &AccountStore{db: db, repo: repo}, nil
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (core.Principal, bool, error) {
	if s == nil || s.repo == nil {
		return core.Principal{}, false, fmt.Errorf("sqlstore: account store is not configured")
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return core.Principal{}, false, fmt.Errorf("sqlstore: email is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("email", "=", email),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Principal{}, false, err
	}
	if len(records) == 0 {
		return core.Principal{}, false, nil
	}
	return records[0].toDomain(), true, nil
}

func (s *AccountStore) GetByID(ctx context.Context, id string) (core.Principal, error) {
	if s == nil || s.repo == nil {
		return core.Principal{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Principal{}, fmt.Errorf("sqlstore: principal id is required")
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return core.Principal{}, core.ErrPrincipalNotFound
		}
		return core.Principal{}, err
	}
	return record.toDomain(), nil
}

func (s *AccountStore) Create(ctx context.Context, in core.CreatePrincipalInput) (core.Principal, error) {
	if s == nil || s.repo == nil {
		return core.Principal{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	if strings.TrimSpace(in.Email) == "" {
		return core.Principal{}, fmt.Errorf("sqlstore: email is required")
	}
	if strings.TrimSpace(in.Role) == "" {
		return core.Principal{}, fmt.Errorf("sqlstore: role is required")
	}

	record := newPrincipalRecord(uuid.NewString(), in, time.Now().UTC())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Principal{}, core.ErrEmailTaken
		}
		return core.Principal{}, err
	}
	return created.toDomain(), nil
}

func (s *AccountStore) UpdateRole(ctx context.Context, id string, role string) (core.Principal, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return core.Principal{}, fmt.Errorf("sqlstore: role is required")
	}
	return s.updateRecord(ctx, id, func(record *principalRecord) {
		record.Role = role
	})
}

func (s *AccountStore) SetPassword(ctx context.Context, id string, passwordHash string) (core.Principal, error) {
	if strings.TrimSpace(passwordHash) == "" {
		return core.Principal{}, fmt.Errorf("sqlstore: password hash is required")
	}
	return s.updateRecord(ctx, id, func(record *principalRecord) {
		record.PasswordHash = passwordHash
	})
}

// LinkProvider writes the provider sub-identity once. An existing link
// for the same provider is left untouched, mirroring the resolver's
// first-link-wins rule at the storage boundary.
func (s *AccountStore) LinkProvider(ctx context.Context, id string, providerID string, identity core.ProviderIdentity) (core.Principal, error) {
	providerID = strings.TrimSpace(strings.ToLower(providerID))
	if providerID == "" {
		return core.Principal{}, fmt.Errorf("sqlstore: provider id is required")
	}
	if strings.TrimSpace(identity.ID) == "" {
		return core.Principal{}, fmt.Errorf("sqlstore: provider identity id is required")
	}
	return s.updateRecord(ctx, id, func(record *principalRecord) {
		if record.Social == nil {
			record.Social = map[string]providerIdentity{}
		}
		if existing, ok := record.Social[providerID]; ok && strings.TrimSpace(existing.ID) != "" {
			return
		}
		record.Social[providerID] = providerIdentity{
			ID:          identity.ID,
			DisplayName: identity.DisplayName,
		}
	})
}

func (s *AccountStore) updateRecord(ctx context.Context, id string, mutate func(*principalRecord)) (core.Principal, error) {
	if s == nil || s.repo == nil {
		return core.Principal{}, fmt.Errorf("sqlstore: account store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Principal{}, fmt.Errorf("sqlstore: principal id is required")
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return core.Principal{}, core.ErrPrincipalNotFound
		}
		return core.Principal{}, err
	}
	mutate(record)
	record.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, record, repository.UpdateByID(id))
	if err != nil {
		return core.Principal{}, err
	}
	return updated.toDomain(), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "no rows") || strings.Contains(message, "not found")
}

var _ core.AccountStore = (*AccountStore)(nil)
