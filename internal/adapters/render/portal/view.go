package portal

import (
	"fmt"
	"strings"
	"time"

	"github.com/ezlumper/haulpass-cli/internal/application"
	"github.com/ezlumper/haulpass-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
}

func renderOverview(state application.SessionState, list application.RequestList, opts RenderOptions, s styles) string {
	lines := []string{s.title.Render("H.A.U.L. PASS Portal")}

	switch state.Phase {
	case application.SessionLoading:
		lines = append(lines, s.empty.Render("Resolving session..."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	case application.SessionUnauthenticated:
		lines = append(lines, s.warning.Render("Not signed in."))
		lines = append(lines, s.detail.Render("Run `hp login request` to get a sign-in link."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	case application.SessionError:
		lines = append(lines, s.warning.Render(state.Message))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	company := state.Session.Company
	lines = append(lines,
		s.header.Render(fmt.Sprintf("member %s • %s", company.MemberNumber, company.Name)),
		planLine(company.PlanType, s),
		fieldLine("credits", fmt.Sprintf("%d", company.Credits), s),
		fieldLine("card on file", yesNo(company.CardOnFile), s),
	)
	if company.BillingEmail != "" {
		lines = append(lines, fieldLine("billing email", company.BillingEmail, s))
	}

	lines = append(lines, s.section.Render(renderRecent(list, opts, s)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func planLine(plan domain.PlanType, s styles) string {
	capability := "priority dispatch"
	if plan.GuaranteedResponse() {
		capability = "guaranteed response + SLA credit protection"
	}
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.label.Render("plan: "),
		s.value.Render(planLabel(plan)),
		s.detail.Render(" ("+capability+")"),
	)
}

func planLabel(plan domain.PlanType) string {
	switch plan {
	case domain.PlanHaulPass:
		return "H.A.U.L. PASS"
	case domain.PlanHaulPassLite:
		return "H.A.U.L. PASS Lite"
	default:
		return string(plan)
	}
}

func renderRecent(list application.RequestList, opts RenderOptions, s styles) string {
	recent := domain.Recent(list.All, application.RecentSummaryLimit)

	parts := []string{
		s.header.Render(fmt.Sprintf("active requests: %d", len(list.Current))),
	}
	if len(recent) == 0 {
		parts = append(parts, s.empty.Render("No requests yet."))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}
	for _, r := range recent {
		parts = append(parts, requestLine(r, opts, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderRequests(list application.RequestList, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Service Requests"),
		s.header.Render(fmt.Sprintf("current: %d", len(list.Current))),
	}

	if len(list.Current) == 0 {
		lines = append(lines, s.empty.Render("No active requests."))
	}
	for _, r := range list.Current {
		lines = append(lines, requestLine(r, opts, s))
	}

	previous := domain.Recent(list.Previous, application.PreviousPageLimit)
	lines = append(lines, s.section.Render(s.header.Render(fmt.Sprintf("previous: %d", len(list.Previous)))))
	if len(previous) == 0 {
		lines = append(lines, s.empty.Render("No completed requests."))
	}
	for _, r := range previous {
		lines = append(lines, requestLine(r, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func requestLine(r domain.ServiceRequest, opts RenderOptions, s styles) string {
	segments := []string{
		s.mono.Render(string(r.ID)),
		" ",
		s.value.Render(tierLabel(r.RequestTier)),
		" ",
		statusSegment(r.Status, s),
		" ",
		s.detail.Render(r.DestinationAddress),
	}
	if !r.CreatedAt.IsZero() {
		segments = append(segments, " ", s.mono.Render("("+formatCreatedAt(r.CreatedAt, opts.Now)+")"))
	}
	if payment := paymentSummary(r.CreditsUsed, r.BillAmountCents); payment != "" {
		segments = append(segments, " ", s.detail.Render(payment))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, segments...)
}

func statusSegment(status domain.RequestStatus, s styles) string {
	if status.Active() {
		return s.value.Render(string(status))
	}
	return s.label.Render(string(status))
}

func tierLabel(tier domain.RequestTier) string {
	return strings.ReplaceAll(string(tier), "_", " ")
}

// paymentSummary collapses the credits/bill split into one fragment; requests
// paid purely with credits show no dollar amount.
func paymentSummary(creditsUsed, billCents int) string {
	fragments := make([]string, 0, 2)
	if creditsUsed > 0 {
		unit := "credits"
		if creditsUsed == 1 {
			unit = "credit"
		}
		fragments = append(fragments, fmt.Sprintf("%d %s", creditsUsed, unit))
	}
	if billCents > 0 {
		fragments = append(fragments, domain.Dollars(billCents))
	}
	return strings.Join(fragments, " + ")
}

func formatCreatedAt(createdAt, now time.Time) string {
	if !now.IsZero() && createdAt.Year() == now.Year() {
		return createdAt.Format("02 Jan 15:04")
	}
	return createdAt.Format("02 Jan 2006")
}

func renderStatement(statement application.Statement, invoiceURL func(id string) string, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Billing"),
		s.header.Render(fmt.Sprintf(
			"requests: %d • credits used: %d • billed: %s",
			statement.Totals.Count,
			statement.Totals.CreditsUsed,
			domain.Dollars(statement.Totals.BilledCents),
		)),
	}

	if len(statement.Items) == 0 {
		lines = append(lines, s.empty.Render("No billing history."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, item := range statement.Items {
		lines = append(lines, s.section.Render(billingLines(item, invoiceURL, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func billingLines(item domain.BillingItem, invoiceURL func(id string) string, opts RenderOptions, s styles) string {
	head := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.mono.Render(string(item.ID)),
		" ",
		s.value.Render(tierLabel(item.RequestTier)),
		" ",
		statusSegment(item.Status, s),
		" ",
		s.mono.Render("("+formatCreatedAt(item.CreatedAt, opts.Now)+")"),
	)

	detail := paymentSummary(item.CreditsUsed, item.BillAmountCents)
	if detail == "" {
		detail = "no charge"
	}
	parts := []string{head, s.detail.Render("  " + detail)}

	if invoiceURL != nil {
		parts = append(parts, s.mono.Render("  invoice: "+invoiceURL(string(item.ID))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderTracking(state application.TrackingState, opts RenderOptions, s styles) string {
	lines := []string{s.title.Render("Live Tracking")}

	switch state.Phase {
	case application.TrackingIdle:
		lines = append(lines, s.empty.Render("No request selected."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	case application.TrackingLoading:
		lines = append(lines, s.empty.Render(fmt.Sprintf("Loading feed for %s...", state.RequestID)))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	case application.TrackingError:
		lines = append(lines, s.warning.Render(state.Message))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	view := state.View
	lines = append(lines,
		s.header.Render(fmt.Sprintf("request %s • %d pings", view.RequestID, len(view.Pings))),
		fieldLine("marker", view.Marker.Label, s),
		fieldLine("position", fmt.Sprintf("%g, %g", view.Marker.Lat, view.Marker.Lng), s),
	)
	if view.Destination.Lat != nil && view.Destination.Lng != nil {
		lines = append(lines, fieldLine("destination", fmt.Sprintf("%g, %g", *view.Destination.Lat, *view.Destination.Lng), s))
	}
	lines = append(lines, s.mono.Render("map: "+view.MapURL))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func fieldLine(label, value string, s styles) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.label.Render(label+": "),
		s.detail.Render(value),
	)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
