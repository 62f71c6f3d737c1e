package domain

import "time"

type RequestID string

type RequestStatus string

const (
	StatusSubmitted  RequestStatus = "SUBMITTED"
	StatusAssigned   RequestStatus = "ASSIGNED"
	StatusInProgress RequestStatus = "IN_PROGRESS"
	StatusCompleted  RequestStatus = "COMPLETED"
	StatusCancelled  RequestStatus = "CANCELLED"
)

// Active reports whether the status is still moving through dispatch.
func (s RequestStatus) Active() bool {
	switch s {
	case StatusSubmitted, StatusAssigned, StatusInProgress:
		return true
	default:
		return false
	}
}

type RequestTier string

const (
	Tier1 RequestTier = "TIER_1"
	Tier2 RequestTier = "TIER_2"
	Tier3 RequestTier = "TIER_3"
	Tier4 RequestTier = "TIER_4"
)

type PaymentPreference string

const (
	PayCredits         PaymentPreference = "CREDITS"
	PayCreditsPlusDiff PaymentPreference = "CREDITS_PLUS_DIFF"
	PayBillFull        PaymentPreference = "BILL_FULL"
)

type ServiceRequest struct {
	ID                 RequestID
	Status             RequestStatus
	RequestTier        RequestTier
	DestinationAddress string
	CreatedAt          time.Time
	CreditsUsed        int
	BillAmountCents    int
	PaymentMode        string
}

// PartitionRequests splits requests into current (active-status) and previous
// buckets. Every request lands in exactly one bucket; server order is
// preserved within each.
func PartitionRequests(requests []ServiceRequest) (current, previous []ServiceRequest) {
	for _, r := range requests {
		if r.Status.Active() {
			current = append(current, r)
		} else {
			previous = append(previous, r)
		}
	}
	return current, previous
}

// Recent returns a prefix of the server-provided order. No client-side
// reordering is applied.
func Recent(requests []ServiceRequest, n int) []ServiceRequest {
	if len(requests) <= n {
		return requests
	}
	return requests[:n]
}
