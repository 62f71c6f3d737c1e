package portal

import (
	"testing"
	"time"

	"github.com/ezlumper/haulpass-cli/internal/application"
	"github.com/ezlumper/haulpass-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func readyState() application.SessionState {
	return application.SessionState{
		Phase: application.SessionReady,
		Session: domain.Session{
			User: domain.User{Email: "ops@acme.example", Role: "ADMIN"},
			Company: domain.Company{
				MemberNumber: "HP-10482",
				Name:         "Acme Freight",
				PlanType:     domain.PlanHaulPass,
				Credits:      7,
				CardOnFile:   true,
				BillingEmail: "billing@acme.example",
			},
		},
	}
}

func TestRenderOverviewReadySession(t *testing.T) {
	now := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)

	list := application.RequestList{
		All: []domain.ServiceRequest{
			{ID: "req-9", Status: domain.StatusInProgress, RequestTier: domain.Tier2, DestinationAddress: "500 W Madison St, Chicago", CreatedAt: now.Add(-2 * time.Hour), CreditsUsed: 2},
			{ID: "req-8", Status: domain.StatusCompleted, RequestTier: domain.Tier1, DestinationAddress: "32 Canal St, Chicago", CreatedAt: now.Add(-72 * time.Hour), BillAmountCents: 45000},
		},
		Current:  []domain.ServiceRequest{{ID: "req-9", Status: domain.StatusInProgress}},
		Previous: []domain.ServiceRequest{{ID: "req-8", Status: domain.StatusCompleted}},
	}

	output, err := RenderOverview(readyState(), list, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "H.A.U.L. PASS Portal")
	assert.Contains(t, output, "member HP-10482 • Acme Freight")
	assert.Contains(t, output, "guaranteed response + SLA credit protection")
	assert.Contains(t, output, "credits: 7")
	assert.Contains(t, output, "card on file: yes")
	assert.Contains(t, output, "billing email: billing@acme.example")
	assert.Contains(t, output, "active requests: 1")
	assert.Contains(t, output, "req-9")
	assert.Contains(t, output, "2 credits")
	assert.Contains(t, output, "$450.00")
}

func TestRenderOverviewLiteCapability(t *testing.T) {
	state := readyState()
	state.Session.Company.PlanType = domain.PlanHaulPassLite

	output, err := RenderOverview(state, application.RequestList{}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "H.A.U.L. PASS Lite")
	assert.Contains(t, output, "(priority dispatch)")
	assert.NotContains(t, output, "SLA credit protection")
	assert.Contains(t, output, "No requests yet.")
}

func TestRenderOverviewCapsRecentAtFive(t *testing.T) {
	list := application.RequestList{}
	for i := 0; i < 8; i++ {
		list.All = append(list.All, domain.ServiceRequest{
			ID:     domain.RequestID([]string{"req-a", "req-b", "req-c", "req-d", "req-e", "req-f", "req-g", "req-h"}[i]),
			Status: domain.StatusCompleted,
		})
	}

	output, err := RenderOverview(readyState(), list, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "req-a")
	assert.Contains(t, output, "req-e")
	assert.NotContains(t, output, "req-f")
}

func TestRenderOverviewUnauthenticated(t *testing.T) {
	output, err := RenderOverview(application.SessionState{Phase: application.SessionUnauthenticated}, application.RequestList{}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "Not signed in.")
	assert.Contains(t, output, "hp login request")
}

func TestRenderOverviewError(t *testing.T) {
	output, err := RenderOverview(application.SessionState{
		Phase:   application.SessionError,
		Message: "failed to load session (500)",
	}, application.RequestList{}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "failed to load session (500)")
}

func TestRenderRequestsSplitsSections(t *testing.T) {
	now := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)
	list := application.RequestList{
		Current: []domain.ServiceRequest{
			{ID: "req-20", Status: domain.StatusAssigned, RequestTier: domain.Tier3, DestinationAddress: "O'Hare cargo ramp 4", CreatedAt: now.Add(-30 * time.Minute)},
		},
		Previous: []domain.ServiceRequest{
			{ID: "req-11", Status: domain.StatusCancelled, RequestTier: domain.Tier1, DestinationAddress: "Joliet intermodal yard", CreatedAt: now.Add(-200 * time.Hour)},
		},
	}

	output, err := RenderRequests(list, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "current: 1")
	assert.Contains(t, output, "previous: 1")
	assert.Contains(t, output, "TIER 3")
	assert.Contains(t, output, "ASSIGNED")
	assert.Contains(t, output, "CANCELLED")
}

func TestRenderRequestsCapsPreviousAtTen(t *testing.T) {
	list := application.RequestList{}
	for i := 0; i < 12; i++ {
		list.Previous = append(list.Previous, domain.ServiceRequest{
			ID:     domain.RequestID(string(rune('a'+i)) + "-req"),
			Status: domain.StatusCompleted,
		})
	}

	output, err := RenderRequests(list, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "previous: 12")
	assert.Contains(t, output, "j-req")
	assert.NotContains(t, output, "k-req")
}

func TestRenderStatementTotalsAndInvoices(t *testing.T) {
	now := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)
	items := []domain.BillingItem{
		{ID: "req-5", Status: domain.StatusCompleted, RequestTier: domain.Tier2, CreatedAt: now.Add(-24 * time.Hour), CreditsUsed: 1, BillAmountCents: 12550},
		{ID: "req-4", Status: domain.StatusCompleted, RequestTier: domain.Tier1, CreatedAt: now.Add(-48 * time.Hour), CreditsUsed: 3},
	}

	output, err := RenderStatement(application.Statement{
		Items:  items,
		Totals: domain.AggregateBilling(items),
	}, func(id string) string {
		return "https://portal.example/invoices/" + id
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "requests: 2 • credits used: 4 • billed: $125.50")
	assert.Contains(t, output, "1 credit + $125.50")
	assert.Contains(t, output, "3 credits")
	assert.Contains(t, output, "invoice: https://portal.example/invoices/req-5")
}

func TestRenderStatementEmptyHistory(t *testing.T) {
	output, err := RenderStatement(application.Statement{}, nil, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "requests: 0 • credits used: 0 • billed: $0.00")
	assert.Contains(t, output, "No billing history.")
}

func TestRenderTrackingReadyView(t *testing.T) {
	marker := domain.Marker{Lat: 41.9, Lng: -87.65, Label: "Last crew ping • 1:02:03 PM"}

	output, err := RenderTracking(application.TrackingState{
		Phase:     application.TrackingReady,
		RequestID: "req-9",
		View: application.TrackingView{
			RequestID:   "req-9",
			Destination: domain.Destination{Lat: floatPtr(41.95), Lng: floatPtr(-87.7)},
			Pings:       []domain.TrackingPing{{Lat: 41.9, Lng: -87.65}},
			Marker:      marker,
			MapURL:      domain.OSMEmbedURL(marker),
		},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "request req-9 • 1 pings")
	assert.Contains(t, output, "Last crew ping • 1:02:03 PM")
	assert.Contains(t, output, "destination: 41.95, -87.7")
	assert.Contains(t, output, "map: https://www.openstreetmap.org/export/embed.html")
}

func TestRenderTrackingFallbackMarker(t *testing.T) {
	output, err := RenderTracking(application.TrackingState{
		Phase:     application.TrackingReady,
		RequestID: "req-2",
		View: application.TrackingView{
			RequestID: "req-2",
			Marker:    domain.FallbackMarker,
			MapURL:    domain.OSMEmbedURL(domain.FallbackMarker),
		},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "Demo marker (Chicago)")
	assert.Contains(t, output, "0 pings")
}

func TestRenderTrackingErrorState(t *testing.T) {
	output, err := RenderTracking(application.TrackingState{
		Phase:     application.TrackingError,
		RequestID: "req-2",
		Message:   "fetch tracking: request failed (503)",
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "fetch tracking: request failed (503)")
}
