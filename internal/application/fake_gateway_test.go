package application

import (
	"context"
	"errors"

	"github.com/ezlumper/haulpass-cli/internal/domain"
	"github.com/ezlumper/haulpass-cli/internal/ports"
)

// fakeGateway implements ports.Gateway with per-call hooks. Unset hooks fail
// loudly so a test cannot silently exercise an endpoint it did not stub.
type fakeGateway struct {
	me             func(ctx context.Context) (domain.Session, error)
	listRequests   func(ctx context.Context) ([]domain.ServiceRequest, error)
	createRequest  func(ctx context.Context, input ports.CreateRequestInput) (domain.RequestID, error)
	tracking       func(ctx context.Context, id domain.RequestID) (ports.TrackingFeed, error)
	billingHistory func(ctx context.Context) ([]domain.BillingItem, error)
	updateAccount  func(ctx context.Context, update ports.AccountUpdate) error
	syncAccount    func(ctx context.Context) error
}

var errUnexpectedCall = errors.New("unexpected gateway call")

func (f *fakeGateway) Me(ctx context.Context) (domain.Session, error) {
	if f.me == nil {
		return domain.Session{}, errUnexpectedCall
	}
	return f.me(ctx)
}

func (f *fakeGateway) RequestMagicLink(context.Context, string, string) error {
	return errUnexpectedCall
}

func (f *fakeGateway) Logout(context.Context) error { return errUnexpectedCall }

func (f *fakeGateway) UpdateAccount(ctx context.Context, update ports.AccountUpdate) error {
	if f.updateAccount == nil {
		return errUnexpectedCall
	}
	return f.updateAccount(ctx, update)
}

func (f *fakeGateway) SyncAccount(ctx context.Context) error {
	if f.syncAccount == nil {
		return errUnexpectedCall
	}
	return f.syncAccount(ctx)
}

func (f *fakeGateway) ListRequests(ctx context.Context) ([]domain.ServiceRequest, error) {
	if f.listRequests == nil {
		return nil, errUnexpectedCall
	}
	return f.listRequests(ctx)
}

func (f *fakeGateway) CreateRequest(ctx context.Context, input ports.CreateRequestInput) (domain.RequestID, error) {
	if f.createRequest == nil {
		return "", errUnexpectedCall
	}
	return f.createRequest(ctx, input)
}

func (f *fakeGateway) Tracking(ctx context.Context, id domain.RequestID) (ports.TrackingFeed, error) {
	if f.tracking == nil {
		return ports.TrackingFeed{}, errUnexpectedCall
	}
	return f.tracking(ctx, id)
}

func (f *fakeGateway) BillingHistory(ctx context.Context) ([]domain.BillingItem, error) {
	if f.billingHistory == nil {
		return nil, errUnexpectedCall
	}
	return f.billingHistory(ctx)
}

func (f *fakeGateway) InvoiceURL(id domain.RequestID) string {
	return "https://api.example.test/requests/" + string(id) + "/invoice"
}

func readySession(cardOnFile bool, credits int) domain.Session {
	return domain.Session{
		User: domain.User{Email: "dispatch@acme.test", Role: "MEMBER"},
		Company: domain.Company{
			MemberNumber: "HP-1042",
			PlanType:     domain.PlanHaulPass,
			Credits:      credits,
			CardOnFile:   cardOnFile,
		},
	}
}

func readyResolver(gateway *fakeGateway, session domain.Session) *SessionResolver {
	saved := gateway.me
	gateway.me = func(context.Context) (domain.Session, error) { return session, nil }
	resolver := NewSessionResolver(gateway)
	resolver.Resolve(context.Background())
	gateway.me = saved
	return resolver
}
