package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ezlumper/haulpass-cli/internal/domain"
	"github.com/ezlumper/haulpass-cli/internal/ports"
)

type SessionPhase string

const (
	SessionLoading         SessionPhase = "loading"
	SessionUnauthenticated SessionPhase = "unauthenticated"
	SessionError           SessionPhase = "error"
	SessionReady           SessionPhase = "ready"
)

// SessionState is the resolver outcome. Session is meaningful only when
// Phase is SessionReady; Message only when Phase is SessionError.
type SessionState struct {
	Phase   SessionPhase
	Message string
	Session domain.Session
}

// SessionResolver gates the portal on the remote session. It owns the only
// cached Session in the system and replaces it wholesale on every resolve;
// components that mutate remote state call Refresh instead of patching their
// local copy.
type SessionResolver struct {
	gateway ports.Gateway

	mu    sync.RWMutex
	state SessionState
}

func NewSessionResolver(gateway ports.Gateway) *SessionResolver {
	return &SessionResolver{
		gateway: gateway,
		state:   SessionState{Phase: SessionLoading},
	}
}

// Resolve fetches the current identity and classifies the outcome: 401 maps
// to unauthenticated, other failures to an error state, success to ready.
// The resolver itself performs no writes.
func (r *SessionResolver) Resolve(ctx context.Context) SessionState {
	session, err := r.gateway.Me(ctx)

	var next SessionState
	switch {
	case err == nil:
		next = SessionState{Phase: SessionReady, Session: session}
	case errors.Is(err, domain.ErrUnauthenticated):
		next = SessionState{Phase: SessionUnauthenticated}
	case errors.Is(err, domain.ErrUnexpectedResponse):
		next = SessionState{Phase: SessionError, Message: domain.ErrUnexpectedResponse.Error()}
	default:
		next = SessionState{Phase: SessionError, Message: resolveFailureMessage(err)}
	}

	r.mu.Lock()
	r.state = next
	r.mu.Unlock()

	return next
}

// Refresh re-resolves and replaces the cached session. Callers that mutate
// remote state invoke this afterward rather than assuming their local edit
// is authoritative.
func (r *SessionResolver) Refresh(ctx context.Context) SessionState {
	return r.Resolve(ctx)
}

func (r *SessionResolver) Current() SessionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Session returns the cached session when the resolver is in the ready state.
func (r *SessionResolver) Session() (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state.Phase != SessionReady {
		return domain.Session{}, false
	}
	return r.state.Session, true
}

func resolveFailureMessage(err error) string {
	var transportErr *domain.TransportError
	if errors.As(err, &transportErr) && transportErr.Status != 0 {
		return fmt.Sprintf("failed to load session (%d)", transportErr.Status)
	}
	return err.Error()
}
