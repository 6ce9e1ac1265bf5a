package platform

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/goliatone/go-authflow/core"
)

type fakeDirectory struct {
	mu        sync.Mutex
	users     map[string]DirectoryUser
	projects  map[string]DirectoryProject
	relations map[string]core.ProjectRelation
	nextID    int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users:     map[string]DirectoryUser{},
		projects:  map[string]DirectoryProject{},
		relations: map[string]core.ProjectRelation{},
	}
}

func (d *fakeDirectory) id() string {
	d.nextID++
	return strconv.Itoa(d.nextID)
}

func (d *fakeDirectory) FindUserByPlatformID(ctx context.Context, platformUserID string) (DirectoryUser, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, user := range d.users {
		if user.PlatformUserID == platformUserID {
			return user, true, nil
		}
	}
	return DirectoryUser{}, false, nil
}

func (d *fakeDirectory) CreateUser(ctx context.Context, user DirectoryUser) (DirectoryUser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user.ID = d.id()
	d.users[user.ID] = user
	return user, nil
}

func (d *fakeDirectory) EnsureProject(ctx context.Context, name string) (DirectoryProject, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, project := range d.projects {
		if project.Name == name {
			return project, nil
		}
	}
	project := DirectoryProject{ID: d.id(), Name: name}
	d.projects[project.ID] = project
	return project, nil
}

func (d *fakeDirectory) FindRelation(ctx context.Context, userID string, projectID string) (core.ProjectRelation, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, relation := range d.relations {
		if relation.UserID == userID && relation.ProjectID == projectID {
			return relation, true, nil
		}
	}
	return core.ProjectRelation{}, false, nil
}

func (d *fakeDirectory) GetRelation(ctx context.Context, id string) (core.ProjectRelation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	relation, ok := d.relations[id]
	if !ok {
		return core.ProjectRelation{}, fmt.Errorf("platform: relation %q not found", id)
	}
	return relation, nil
}

func (d *fakeDirectory) CreateRelation(ctx context.Context, relation core.ProjectRelation) (core.ProjectRelation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	relation.ID = d.id()
	d.relations[relation.ID] = relation
	return relation, nil
}

func (d *fakeDirectory) UpdateRelationSessions(ctx context.Context, id string, sessionIDs []string) (core.ProjectRelation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	relation, ok := d.relations[id]
	if !ok {
		return core.ProjectRelation{}, fmt.Errorf("platform: relation %q not found", id)
	}
	relation.SessionIDs = sessionIDs
	d.relations[id] = relation
	return relation, nil
}

type fakeIdentityClient struct {
	session  Session
	authErr  error
	lastCode string
}

func (c *fakeIdentityClient) AuthorizationURL(redirectURI string, state string) (string, error) {
	return "https://platform.test/authorize?redirect_uri=" + redirectURI + "&state=" + state, nil
}

func (c *fakeIdentityClient) Authenticate(ctx context.Context, code string) (Session, error) {
	c.lastCode = code
	if c.authErr != nil {
		return Session{}, c.authErr
	}
	return c.session, nil
}

func (c *fakeIdentityClient) LogoutURL(sessionID string) (string, error) {
	return "https://platform.test/logout?session_id=" + sessionID, nil
}

type fakeDelivery struct {
	issued  []core.Claims
	resolve core.ResolvedCredential
	revoked int
}

func (d *fakeDelivery) Issue(ctx context.Context, claims core.Claims, sink core.CredentialSink) (core.IssuedCredential, error) {
	d.issued = append(d.issued, claims)
	return core.IssuedCredential{Token: "issued-token"}, nil
}

func (d *fakeDelivery) Resolve(ctx context.Context, source core.CredentialSource) core.ResolvedCredential {
	return d.resolve
}

func (d *fakeDelivery) Revoke(sink core.CredentialSink) {
	d.revoked++
}
