package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/ezlumper/haulpass-cli/internal/domain"
	"github.com/ezlumper/haulpass-cli/internal/ports"
	"github.com/google/uuid"
)

const (
	// RecentSummaryLimit is the prefix size for the overview's recent list.
	RecentSummaryLimit = 5
	// PreviousPageLimit is the prefix size for the previous-requests view.
	PreviousPageLimit = 10
)

type RequestList struct {
	All      []domain.ServiceRequest
	Current  []domain.ServiceRequest
	Previous []domain.ServiceRequest
}

type SubmitInput struct {
	Tier               domain.RequestTier
	RequestorName      string
	RequestorContact   string
	DestinationAddress string
	PaymentPreference  domain.PaymentPreference
}

// SubmitResult carries the submission outcome plus the refreshed view state.
// Reload and session-refresh failures are siloed in their own fields so they
// never mask an accepted submission.
type SubmitResult struct {
	RequestID domain.RequestID
	List      RequestList
	ListErr   error
	Session   SessionState
}

// LifecycleService owns the service-request lifecycle: listing with the
// active/previous partition and idempotent submission.
type LifecycleService struct {
	gateway  ports.Gateway
	resolver *SessionResolver

	// newIdempotencyKey is swapped in tests; production keys are uuid-based
	// and generated fresh on every submit so a transport-level retry cannot
	// double-bill.
	newIdempotencyKey func() string
}

func NewLifecycleService(gateway ports.Gateway, resolver *SessionResolver) *LifecycleService {
	return &LifecycleService{
		gateway:  gateway,
		resolver: resolver,
		newIdempotencyKey: func() string {
			return "cli_" + uuid.NewString()
		},
	}
}

// List fetches all requests and partitions them by the fixed active-status
// rule. Server order is preserved.
func (s *LifecycleService) List(ctx context.Context) (RequestList, error) {
	requests, err := s.gateway.ListRequests(ctx)
	if err != nil {
		return RequestList{}, fmt.Errorf("list requests: %w", err)
	}

	current, previous := domain.PartitionRequests(requests)
	return RequestList{All: requests, Current: current, Previous: previous}, nil
}

// Submit validates locally, then creates the request with a fresh idempotency
// key. Preconditions that fail block the call before any network round-trip.
// On success the request list is reloaded and the session refreshed, in that
// order.
func (s *LifecycleService) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	if err := s.validate(input); err != nil {
		return SubmitResult{}, err
	}

	id, err := s.gateway.CreateRequest(ctx, ports.CreateRequestInput{
		IdempotencyKey:     s.newIdempotencyKey(),
		RequestTier:        input.Tier,
		RequestorName:      strings.TrimSpace(input.RequestorName),
		RequestorContact:   strings.TrimSpace(input.RequestorContact),
		DestinationAddress: strings.TrimSpace(input.DestinationAddress),
		PaymentPreference:  input.PaymentPreference,
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("submit request: %w", err)
	}

	result := SubmitResult{RequestID: id}
	result.List, result.ListErr = s.List(ctx)
	// credits may have changed server-side; refresh the cached session after
	// the reload resolves
	result.Session = s.resolver.Refresh(ctx)

	return result, nil
}

func (s *LifecycleService) validate(input SubmitInput) error {
	if len(strings.TrimSpace(input.RequestorName)) <= 1 {
		return &domain.ValidationError{Field: "requestor name", Reason: "too short"}
	}
	if len(strings.TrimSpace(input.RequestorContact)) <= 3 {
		return &domain.ValidationError{Field: "requestor contact", Reason: "enter an email or phone"}
	}
	if len(strings.TrimSpace(input.DestinationAddress)) <= 8 {
		return &domain.ValidationError{Field: "destination address", Reason: "enter street, city, state, zip"}
	}

	session, ok := s.resolver.Session()
	if !ok {
		return &domain.ValidationError{Field: "session", Reason: "resolve the session before submitting"}
	}
	if !session.Company.CardOnFile {
		return &domain.ValidationError{Field: "card on file", Reason: "your company must have a card on file before requests can be submitted"}
	}
	return nil
}
