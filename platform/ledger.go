package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-authflow/core"
)

// SessionLedger appends platform session ids onto the user-project
// relation record. The append is a read-modify-write against the remote
// directory: two concurrent sign-ins can race and the later write wins,
// losing the earlier session id. The ledger is advisory, so a lost entry
// only means that session cannot be enumerated later; its credential
// remains valid.
type SessionLedger struct {
	directory Directory
}

func NewSessionLedger(directory Directory) (*SessionLedger, error) {
	if directory == nil {
		return nil, fmt.Errorf("platform: directory is required")
	}
	return &SessionLedger{directory: directory}, nil
}

// AppendSession records one session id against the relation. Duplicates
// are kept; the ledger is a log, not a set.
func (l *SessionLedger) AppendSession(ctx context.Context, relationID string, sessionID string) (core.ProjectRelation, error) {
	if l == nil || l.directory == nil {
		return core.ProjectRelation{}, fmt.Errorf("platform: session ledger is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return core.ProjectRelation{}, fmt.Errorf("platform: session id is required")
	}

	relation, err := l.directory.GetRelation(ctx, relationID)
	if err != nil {
		return core.ProjectRelation{}, err
	}
	sessionIDs := append(append([]string{}, relation.SessionIDs...), sessionID)
	return l.directory.UpdateRelationSessions(ctx, relation.ID, sessionIDs)
}
