package ports

import (
	"context"
	"time"

	"github.com/ezlumper/haulpass-cli/internal/domain"
)

// Profile is the on-disk state for one portal login: the backend session
// cookie plus the last session snapshot the resolver produced. The snapshot
// is display-only cache; the backend stays the source of truth.
type Profile struct {
	Cookie   string
	Snapshot *domain.Session
	SavedAt  time.Time
}

type SessionStore interface {
	Load(ctx context.Context) (Profile, error)
	Save(ctx context.Context, profile Profile) error
	Clear(ctx context.Context) error
}
