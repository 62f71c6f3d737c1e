package application

import (
	"context"
	"fmt"

	"github.com/ezlumper/haulpass-cli/internal/domain"
	"github.com/ezlumper/haulpass-cli/internal/ports"
)

// Statement is the billing history plus its derived totals.
type Statement struct {
	Items  []domain.BillingItem
	Totals domain.BillingTotals
}

// LedgerService derives billing summaries from the remote history. It never
// mutates remote state; aggregation is a pure fold over fetched items, and a
// failed fetch surfaces as an error instead of a zeroed statement.
type LedgerService struct {
	gateway ports.Gateway
}

func NewLedgerService(gateway ports.Gateway) *LedgerService {
	return &LedgerService{gateway: gateway}
}

func (s *LedgerService) Statement(ctx context.Context) (Statement, error) {
	items, err := s.gateway.BillingHistory(ctx)
	if err != nil {
		return Statement{}, fmt.Errorf("load billing history: %w", err)
	}

	return Statement{Items: items, Totals: domain.AggregateBilling(items)}, nil
}
