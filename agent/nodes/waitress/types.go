package waitressnode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
	gatex "github.com/parlaplate/parlaplate/agent/gate"
	statex "github.com/parlaplate/parlaplate/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

// maxHistoryTurns bounds how much conversation rides along on each external
// call.
const maxHistoryTurns = 12

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Reply      string
	Intent     contractx.Intent
	Gate       statex.GateState
	Shortlist  []contractx.ShortlistItem
	OrderReady bool
}

// GraphState is the turn's working memory. Session is a working copy: nodes
// mutate it freely and nothing is persisted until the commit node runs, so a
// failed turn leaves the stored state untouched.
type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Session   *statex.SessionState
	PriorGate statex.GateState
	Decision  gatex.Decision

	Shortlist  []contractx.ShortlistItem
	Reply      string
	OrderReady bool
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}
