package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/ezlumper/haulpass-cli/internal/domain"
	"github.com/ezlumper/haulpass-cli/internal/ports"
)

// AccountService applies profile edits and the external CRM sync. Each
// successful mutation is followed by a session refresh; the local edit is
// never treated as authoritative.
type AccountService struct {
	gateway  ports.Gateway
	resolver *SessionResolver
}

func NewAccountService(gateway ports.Gateway, resolver *SessionResolver) *AccountService {
	return &AccountService{gateway: gateway, resolver: resolver}
}

func (s *AccountService) Update(ctx context.Context, update ports.AccountUpdate) (SessionState, error) {
	update.CompanyName = strings.TrimSpace(update.CompanyName)
	update.BillingEmail = strings.TrimSpace(update.BillingEmail)
	update.BillingPhone = strings.TrimSpace(update.BillingPhone)
	update.UserPhone = strings.TrimSpace(update.UserPhone)

	if update.BillingEmail != "" && len(update.BillingEmail) <= 3 {
		return SessionState{}, &domain.ValidationError{Field: "billing email", Reason: "too short"}
	}

	if err := s.gateway.UpdateAccount(ctx, update); err != nil {
		return SessionState{}, fmt.Errorf("save account: %w", err)
	}

	return s.resolver.Refresh(ctx), nil
}

// Sync pulls external CRM data into the account, then refreshes the session.
func (s *AccountService) Sync(ctx context.Context) (SessionState, error) {
	if err := s.gateway.SyncAccount(ctx); err != nil {
		return SessionState{}, fmt.Errorf("sync account: %w", err)
	}

	return s.resolver.Refresh(ctx), nil
}
