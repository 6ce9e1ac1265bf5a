package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-authflow/core"
)

const (
	defaultRequestTimeout    = 10 * time.Second
	maxDirectoryResponseSize = 1 << 20 // 1 MiB
)

// DirectoryUser is the remote account record keyed by the identity
// platform's user id.
type DirectoryUser struct {
	ID             string `json:"id"`
	PlatformUserID string `json:"platform_user_id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
}

type DirectoryProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Directory is the remote CRUD service owning users, projects, and
// user-project relations. This package never caches directory records;
// every operation round-trips.
type Directory interface {
	FindUserByPlatformID(ctx context.Context, platformUserID string) (DirectoryUser, bool, error)
	CreateUser(ctx context.Context, user DirectoryUser) (DirectoryUser, error)
	EnsureProject(ctx context.Context, name string) (DirectoryProject, error)
	FindRelation(ctx context.Context, userID string, projectID string) (core.ProjectRelation, bool, error)
	GetRelation(ctx context.Context, id string) (core.ProjectRelation, error)
	CreateRelation(ctx context.Context, relation core.ProjectRelation) (core.ProjectRelation, error)
	UpdateRelationSessions(ctx context.Context, id string, sessionIDs []string) (core.ProjectRelation, error)
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type HTTPDirectoryConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient HTTPDoer
}

// HTTPDirectory talks JSON to the directory service. Collection lookups
// filter by query parameters; updates patch only the changed fields.
type HTTPDirectory struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
}

func NewHTTPDirectory(cfg HTTPDirectoryConfig) (*HTTPDirectory, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("platform: directory base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("platform: parse directory base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPDirectory{
		baseURL:    cfg.BaseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: httpClient,
	}, nil
}

func (d *HTTPDirectory) FindUserByPlatformID(ctx context.Context, platformUserID string) (DirectoryUser, bool, error) {
	platformUserID = strings.TrimSpace(platformUserID)
	if platformUserID == "" {
		return DirectoryUser{}, false, fmt.Errorf("platform: platform user id is required")
	}
	var users []DirectoryUser
	query := url.Values{"platform_user_id": {platformUserID}}
	if err := d.do(ctx, http.MethodGet, "/users?"+query.Encode(), nil, &users); err != nil {
		return DirectoryUser{}, false, err
	}
	if len(users) == 0 {
		return DirectoryUser{}, false, nil
	}
	return users[0], true, nil
}

func (d *HTTPDirectory) CreateUser(ctx context.Context, user DirectoryUser) (DirectoryUser, error) {
	var created DirectoryUser
	if err := d.do(ctx, http.MethodPost, "/users", user, &created); err != nil {
		return DirectoryUser{}, err
	}
	return created, nil
}

func (d *HTTPDirectory) EnsureProject(ctx context.Context, name string) (DirectoryProject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DirectoryProject{}, fmt.Errorf("platform: project name is required")
	}
	var projects []DirectoryProject
	query := url.Values{"name": {name}}
	if err := d.do(ctx, http.MethodGet, "/projects?"+query.Encode(), nil, &projects); err != nil {
		return DirectoryProject{}, err
	}
	if len(projects) > 0 {
		return projects[0], nil
	}
	var created DirectoryProject
	if err := d.do(ctx, http.MethodPost, "/projects", DirectoryProject{Name: name}, &created); err != nil {
		return DirectoryProject{}, err
	}
	return created, nil
}

type relationRecord struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	ProjectID      string        `json:"project_id"`
	PlatformUserID string        `json:"platform_user_id"`
	Role           core.RoleSpec `json:"role"`
	SessionIDs     []string      `json:"session_ids"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (r relationRecord) toRelation() core.ProjectRelation {
	return core.ProjectRelation{
		ID:             r.ID,
		UserID:         r.UserID,
		ProjectID:      r.ProjectID,
		PlatformUserID: r.PlatformUserID,
		Role:           r.Role,
		SessionIDs:     r.SessionIDs,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (d *HTTPDirectory) FindRelation(ctx context.Context, userID string, projectID string) (core.ProjectRelation, bool, error) {
	var records []relationRecord
	query := url.Values{"user_id": {strings.TrimSpace(userID)}, "project_id": {strings.TrimSpace(projectID)}}
	if err := d.do(ctx, http.MethodGet, "/user-project-relations?"+query.Encode(), nil, &records); err != nil {
		return core.ProjectRelation{}, false, err
	}
	if len(records) == 0 {
		return core.ProjectRelation{}, false, nil
	}
	return records[0].toRelation(), true, nil
}

func (d *HTTPDirectory) GetRelation(ctx context.Context, id string) (core.ProjectRelation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.ProjectRelation{}, fmt.Errorf("platform: relation id is required")
	}
	var record relationRecord
	if err := d.do(ctx, http.MethodGet, "/user-project-relations/"+url.PathEscape(id), nil, &record); err != nil {
		return core.ProjectRelation{}, err
	}
	return record.toRelation(), nil
}

func (d *HTTPDirectory) CreateRelation(ctx context.Context, relation core.ProjectRelation) (core.ProjectRelation, error) {
	payload := relationRecord{
		UserID:         relation.UserID,
		ProjectID:      relation.ProjectID,
		PlatformUserID: relation.PlatformUserID,
		Role:           relation.Role,
		SessionIDs:     relation.SessionIDs,
	}
	var created relationRecord
	if err := d.do(ctx, http.MethodPost, "/user-project-relations", payload, &created); err != nil {
		return core.ProjectRelation{}, err
	}
	return created.toRelation(), nil
}

func (d *HTTPDirectory) UpdateRelationSessions(ctx context.Context, id string, sessionIDs []string) (core.ProjectRelation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.ProjectRelation{}, fmt.Errorf("platform: relation id is required")
	}
	payload := map[string]any{"session_ids": sessionIDs}
	var updated relationRecord
	if err := d.do(ctx, http.MethodPatch, "/user-project-relations/"+url.PathEscape(id), payload, &updated); err != nil {
		return core.ProjectRelation{}, err
	}
	return updated.toRelation(), nil
}

func (d *HTTPDirectory) do(ctx context.Context, method string, path string, body any, out any) error {
	if d == nil || d.httpClient == nil {
		return fmt.Errorf("platform: directory client is not configured")
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("platform: encode directory request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("platform: build directory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	res, err := d.httpClient.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "platform: directory request failed").
			WithTextCode(core.AuthErrorUpstream)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(res.Body, maxDirectoryResponseSize))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "platform: read directory response").
			WithTextCode(core.AuthErrorUpstream)
	}
	// A 404 on a read addresses a record that does not exist, e.g. a
	// relation id from a stale credential. Collection lookups answer an
	// empty list instead, so this only fires on get-by-id paths.
	if res.StatusCode == http.StatusNotFound && method == http.MethodGet {
		return goerrors.New(
			fmt.Sprintf("platform: directory has no record for %s", path),
			goerrors.CategoryNotFound,
		).WithTextCode(core.AuthErrorNotFound)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return goerrors.New(
			fmt.Sprintf("platform: directory returned status %d for %s %s", res.StatusCode, method, path),
			goerrors.CategoryExternal,
		).WithTextCode(core.AuthErrorUpstream)
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "platform: decode directory response").
			WithTextCode(core.AuthErrorUpstream)
	}
	return nil
}

var _ Directory = (*HTTPDirectory)(nil)
