package application

import (
	"context"
	"sync"

	"github.com/ezlumper/haulpass-cli/internal/domain"
	"github.com/ezlumper/haulpass-cli/internal/ports"
)

type TrackingPhase string

const (
	TrackingIdle    TrackingPhase = "idle"
	TrackingLoading TrackingPhase = "loading"
	TrackingReady   TrackingPhase = "ready"
	TrackingError   TrackingPhase = "error"
)

// TrackingView is the projection for one selected request: raw feed plus the
// derived marker and map URL.
type TrackingView struct {
	RequestID   domain.RequestID
	Destination domain.Destination
	Pings       []domain.TrackingPing
	Marker      domain.Marker
	MapURL      string
}

type TrackingState struct {
	Phase     TrackingPhase
	RequestID domain.RequestID
	View      TrackingView
	Message   string
}

// TrackingProjector fetches position pings for the selected request and
// derives a single display marker. Each Select bumps a generation counter;
// a fetch that resolves after the selection moved on is discarded, so a
// stale response can never overwrite the newer selection's view.
type TrackingProjector struct {
	gateway ports.Gateway

	mu         sync.Mutex
	generation uint64
	state      TrackingState
}

func NewTrackingProjector(gateway ports.Gateway) *TrackingProjector {
	return &TrackingProjector{
		gateway: gateway,
		state:   TrackingState{Phase: TrackingIdle},
	}
}

// Select switches interest to the given request and fetches its feed. The
// returned state is the projector's current state, which reflects a newer
// selection when this one was superseded mid-flight.
func (p *TrackingProjector) Select(ctx context.Context, id domain.RequestID) TrackingState {
	p.mu.Lock()
	p.generation++
	generation := p.generation
	p.state = TrackingState{Phase: TrackingLoading, RequestID: id}
	p.mu.Unlock()

	feed, err := p.gateway.Tracking(ctx, id)

	p.mu.Lock()
	defer p.mu.Unlock()

	if generation != p.generation {
		// a newer selection owns the view now
		return p.state
	}

	if err != nil {
		p.state = TrackingState{Phase: TrackingError, RequestID: id, Message: err.Error()}
		return p.state
	}

	marker := domain.SelectMarker(feed.Pings)
	p.state = TrackingState{
		Phase:     TrackingReady,
		RequestID: id,
		View: TrackingView{
			RequestID:   id,
			Destination: feed.Destination,
			Pings:       feed.Pings,
			Marker:      marker,
			MapURL:      domain.OSMEmbedURL(marker),
		},
	}
	return p.state
}

func (p *TrackingProjector) Current() TrackingState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// DefaultSelection picks the first active request, falling back to the first
// request overall.
func DefaultSelection(requests []domain.ServiceRequest) (domain.RequestID, bool) {
	for _, r := range requests {
		if r.Status.Active() {
			return r.ID, true
		}
	}
	if len(requests) > 0 {
		return requests[0].ID, true
	}
	return "", false
}
