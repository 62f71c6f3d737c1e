package embedsync

import (
	"strings"
	"sync"
)

const (
	// MinHeight and MaxHeight bound any height accepted from the message
	// channel; the value is never trusted verbatim.
	MinHeight = 900
	MaxHeight = 6000

	// applyThreshold suppresses render churn from noisy near-duplicate
	// messages.
	applyThreshold = 10
)

// Viewport breakpoint tiers used before any message arrives.
const (
	narrowMaxWidth = 640
	mediumMaxWidth = 1024

	narrowFallbackHeight = 2900
	mediumFallbackHeight = 2550
	wideFallbackHeight   = 2360
)

// Message is one observed cross-origin message addressed at the page hosting
// the provider frame. Origin and FrameID come from the browser event, Data is
// the raw payload text. All three are untrusted.
type Message struct {
	Origin  string
	FrameID string
	Data    string
}

// Synchronizer owns the embed's pixel height. Messages pass an origin
// allow-list and, when the embedded frame reference is known, a source-frame
// match before their payload is even decoded; accepted heights are clamped
// and coalesced. A responsive breakpoint fallback serves until the first
// accepted message and again after each resize rebaselines it.
type Synchronizer struct {
	originFragment string
	frameID        string

	mu       sync.Mutex
	fallback int
	override int // 0 means no accepted message height
}

func NewSynchronizer(originFragment, frameID string, viewportWidth int) *Synchronizer {
	return &Synchronizer{
		originFragment: strings.ToLower(originFragment),
		frameID:        frameID,
		fallback:       FallbackHeight(viewportWidth),
	}
}

// Height is the current pixel height: the last accepted message height when
// one exists, else the breakpoint fallback.
func (s *Synchronizer) Height() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.height()
}

func (s *Synchronizer) height() int {
	if s.override != 0 {
		return s.override
	}
	return s.fallback
}

// Observe runs one message through the full policy chain. It returns the
// resulting height and whether the message changed it. Rejected or
// out-of-policy messages are discarded silently; they never surface errors.
func (s *Synchronizer) Observe(msg Message) (int, bool) {
	if s.originFragment == "" || !strings.Contains(strings.ToLower(msg.Origin), s.originFragment) {
		return s.Height(), false
	}
	if s.frameID != "" && msg.FrameID != s.frameID {
		return s.Height(), false
	}

	raw, ok := ExtractHeight(msg.Data)
	if !ok {
		return s.Height(), false
	}

	candidate := Clamp(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.height()
	if abs(candidate-current) < applyThreshold {
		return current, false
	}

	s.override = candidate
	return candidate, true
}

// Resize recomputes the breakpoint fallback for a new viewport width and
// makes it the baseline again until the next accepted message.
func (s *Synchronizer) Resize(viewportWidth int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fallback = FallbackHeight(viewportWidth)
	s.override = 0
	return s.fallback
}

// FallbackHeight maps a viewport width onto the three-tier responsive
// fallback.
func FallbackHeight(viewportWidth int) int {
	switch {
	case viewportWidth < narrowMaxWidth:
		return narrowFallbackHeight
	case viewportWidth < mediumMaxWidth:
		return mediumFallbackHeight
	default:
		return wideFallbackHeight
	}
}

// Clamp bounds a raw height to the safe pixel range.
func Clamp(raw float64) int {
	if raw < MinHeight {
		return MinHeight
	}
	if raw > MaxHeight {
		return MaxHeight
	}
	return int(raw)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
