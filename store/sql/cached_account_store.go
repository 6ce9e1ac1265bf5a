package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-authflow/core"
)

const principalCacheKeyPrefix = "go-authflow::principal::v1"

// CachedAccountStore wraps the account store with read-through caching on
// the two lookup paths. Every write invalidates both keys for the
// affected principal; the cache never becomes a source of truth.
type CachedAccountStore struct {
	base  core.AccountStore
	cache repositorycache.CacheService
}

func NewCachedAccountStore(base core.AccountStore, cacheService repositorycache.CacheService) (*CachedAccountStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base account store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: cache service is required")
	}
	return &CachedAccountStore{base: base, cache: cacheService}, nil
}

type principalLookup struct {
	Principal core.Principal
	Found     bool
}

func principalEmailCacheKey(email string) string {
	return principalCacheKeyPrefix + "::email::" + url.PathEscape(strings.TrimSpace(strings.ToLower(email)))
}

func principalIDCacheKey(id string) string {
	return principalCacheKeyPrefix + "::id::" + url.PathEscape(strings.TrimSpace(id))
}

func (s *CachedAccountStore) FindByEmail(ctx context.Context, email string) (core.Principal, bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Principal{}, false, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	lookup, err := repositorycache.GetOrFetch(ctx, s.cache, principalEmailCacheKey(email), func(ctx context.Context) (principalLookup, error) {
		principal, found, fetchErr := s.base.FindByEmail(ctx, email)
		if fetchErr != nil {
			return principalLookup{}, fetchErr
		}
		return principalLookup{Principal: principal, Found: found}, nil
	})
	if err != nil {
		return core.Principal{}, false, err
	}
	return lookup.Principal, lookup.Found, nil
}

func (s *CachedAccountStore) GetByID(ctx context.Context, id string) (core.Principal, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Principal{}, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, principalIDCacheKey(id), func(ctx context.Context) (core.Principal, error) {
		return s.base.GetByID(ctx, id)
	})
}

func (s *CachedAccountStore) Create(ctx context.Context, in core.CreatePrincipalInput) (core.Principal, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Principal{}, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	principal, err := s.base.Create(ctx, in)
	if err != nil {
		return core.Principal{}, err
	}
	// The email key may hold a cached miss from a pre-signup lookup.
	if err := s.invalidate(ctx, principal); err != nil {
		return core.Principal{}, err
	}
	return principal, nil
}

func (s *CachedAccountStore) UpdateRole(ctx context.Context, id string, role string) (core.Principal, error) {
	return s.writeThrough(ctx, func(ctx context.Context) (core.Principal, error) {
		return s.base.UpdateRole(ctx, id, role)
	})
}

func (s *CachedAccountStore) SetPassword(ctx context.Context, id string, passwordHash string) (core.Principal, error) {
	return s.writeThrough(ctx, func(ctx context.Context) (core.Principal, error) {
		return s.base.SetPassword(ctx, id, passwordHash)
	})
}

func (s *CachedAccountStore) LinkProvider(ctx context.Context, id string, providerID string, identity core.ProviderIdentity) (core.Principal, error) {
	return s.writeThrough(ctx, func(ctx context.Context) (core.Principal, error) {
		return s.base.LinkProvider(ctx, id, providerID, identity)
	})
}

func (s *CachedAccountStore) writeThrough(ctx context.Context, write func(context.Context) (core.Principal, error)) (core.Principal, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Principal{}, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	principal, err := write(ctx)
	if err != nil {
		return core.Principal{}, err
	}
	if err := s.invalidate(ctx, principal); err != nil {
		return core.Principal{}, err
	}
	return principal, nil
}

func (s *CachedAccountStore) invalidate(ctx context.Context, principal core.Principal) error {
	if err := s.cache.Delete(ctx, principalEmailCacheKey(principal.Email)); err != nil {
		return err
	}
	return s.cache.Delete(ctx, principalIDCacheKey(principal.ID))
}

var _ core.AccountStore = (*CachedAccountStore)(nil)
