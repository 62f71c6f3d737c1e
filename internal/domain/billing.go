package domain

import (
	"fmt"
	"time"
)

type BillingItem struct {
	ID                 RequestID
	CreatedAt          time.Time
	Status             RequestStatus
	RequestTier        RequestTier
	CreditsUsed        int
	BillAmountCents    int
	PaymentMode        string
	DestinationAddress string
}

type BillingTotals struct {
	BilledCents int
	CreditsUsed int
	Count       int
}

// AggregateBilling folds billing items into summary totals. All arithmetic
// stays in integer cents; formatting happens at the render boundary only.
func AggregateBilling(items []BillingItem) BillingTotals {
	var totals BillingTotals
	for _, item := range items {
		totals.BilledCents += item.BillAmountCents
		totals.CreditsUsed += item.CreditsUsed
		totals.Count++
	}
	return totals
}

// Dollars renders integer cents as a two-decimal currency string.
func Dollars(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
