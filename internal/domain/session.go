package domain

// PlanType values mirror the backend enumeration. The full pass carries
// guaranteed response and SLA credit protection; the lite pass is priority
// dispatch only.
type PlanType string

const (
	PlanHaulPass     PlanType = "HAUL_PASS"
	PlanHaulPassLite PlanType = "HAUL_PASS_LITE"
)

func (p PlanType) GuaranteedResponse() bool {
	return p == PlanHaulPass
}

type User struct {
	Email string
	Role  string
	Phone string
}

type Company struct {
	MemberNumber string
	Name         string
	PlanType     PlanType
	Credits      int
	CardOnFile   bool
	BillingEmail string
	BillingPhone string
}

// Session is the authenticated identity plus company profile for the current
// credential. It is read-mostly: only the session resolver replaces it, and
// always wholesale.
type Session struct {
	User    User
	Company Company
}
