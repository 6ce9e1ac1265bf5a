package sqlstore

import (
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-authflow/core"
)

type principalRecord struct {
	bun.BaseModel `bun:"table:auth_principals,alias:apr"`

	ID           string                      `bun:"id,pk"`
	Email        string                      `bun:"email,notnull,unique"`
	PasswordHash string                      `bun:"password_hash"`
	Role         string                      `bun:"role,notnull"`
	Social       map[string]providerIdentity `bun:"social,type:jsonb"`
	CreatedAt    time.Time                   `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time                   `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type providerIdentity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

func (r *principalRecord) toDomain() core.Principal {
	if r == nil {
		return core.Principal{}
	}
	principal := core.Principal{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if len(r.Social) > 0 {
		principal.Social = make(map[string]core.ProviderIdentity, len(r.Social))
		for providerID, identity := range r.Social {
			principal.Social[providerID] = core.ProviderIdentity{
				ID:          identity.ID,
				DisplayName: identity.DisplayName,
			}
		}
	}
	return principal
}

func newPrincipalRecord(id string, in core.CreatePrincipalInput, now time.Time) *principalRecord {
	record := &principalRecord{
		ID:           id,
		Email:        strings.TrimSpace(strings.ToLower(in.Email)),
		PasswordHash: in.PasswordHash,
		Role:         strings.TrimSpace(in.Role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if len(in.Social) > 0 {
		record.Social = make(map[string]providerIdentity, len(in.Social))
		for providerID, identity := range in.Social {
			record.Social[providerID] = providerIdentity{
				ID:          identity.ID,
				DisplayName: identity.DisplayName,
			}
		}
	}
	return record
}
