package ports

import (
	"context"

	"github.com/ezlumper/haulpass-cli/internal/domain"
)

// AccountUpdate carries the optional profile fields for PATCH /account.
// Empty strings are omitted from the request body.
type AccountUpdate struct {
	CompanyName  string
	BillingEmail string
	BillingPhone string
	UserPhone    string
}

// CreateRequestInput is the wire-level submission payload. The idempotency
// key is generated fresh by the caller on every submit.
type CreateRequestInput struct {
	IdempotencyKey     string
	RequestTier        domain.RequestTier
	RequestorName      string
	RequestorContact   string
	DestinationAddress string
	PaymentPreference  domain.PaymentPreference
}

// TrackingFeed is the raw tracking payload for one request.
type TrackingFeed struct {
	Destination domain.Destination
	Pings       []domain.TrackingPing
}

// Gateway is the typed client surface over the single backend origin. Every
// call attaches the stored session cookie; the gateway never caches and never
// retries. Failures normalize to *domain.TransportError, except the session
// endpoint which maps 401 to domain.ErrUnauthenticated.
type Gateway interface {
	Me(ctx context.Context) (domain.Session, error)
	RequestMagicLink(ctx context.Context, memberNumber, email string) error
	Logout(ctx context.Context) error
	UpdateAccount(ctx context.Context, update AccountUpdate) error
	SyncAccount(ctx context.Context) error
	ListRequests(ctx context.Context) ([]domain.ServiceRequest, error)
	CreateRequest(ctx context.Context, input CreateRequestInput) (domain.RequestID, error)
	Tracking(ctx context.Context, id domain.RequestID) (TrackingFeed, error)
	BillingHistory(ctx context.Context) ([]domain.BillingItem, error)
	InvoiceURL(id domain.RequestID) string
}
