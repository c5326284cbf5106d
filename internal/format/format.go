// Package format turns structured Lightning data into renderable chat
// fragments. Every function here is pure: no network, no shared state, and
// missing fields degrade to documented defaults instead of leaking
// "null"/"undefined" literals into output.
package format

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

// RenderHTML converts a markdown fragment to HTML for IsHTML messages.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", eris.Wrap(err, "format: render markdown")
	}
	return buf.String(), nil
}

// fallback substitutes def when s is empty or a bare placeholder.
func fallback(s, def string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.EqualFold(trimmed, "null") || strings.EqualFold(trimmed, "undefined") {
		return def
	}
	return trimmed
}

// CompanyProfile renders the researched company summary.
func CompanyProfile(raw string, a model.TargetAudience) string {
	var b strings.Builder
	b.WriteString("## Company Profile\n\n")
	b.WriteString(fallback(raw, "We could not gather a detailed profile for your company."))
	b.WriteString("\n\n")
	b.WriteString(TargetAudienceText(a))
	return b.String()
}

// TargetAudienceText renders the audience fields as the read-only view.
func TargetAudienceText(a model.TargetAudience) string {
	var b strings.Builder
	b.WriteString("### Target Audience\n\n")
	rows := []struct{ label, value, def string }{
		{"Sales Objective", a.SalesObjective, "New Customer Acquisition"},
		{"Company Role", a.CompanyRole, "Founder/CEO"},
		{"Short-Term Goal", a.ShortTermGoal, "Build Pipeline"},
		{"Website", a.WebsiteURL, "Not provided"},
		{"Go-To-Market", a.GTM, "Outbound Sales"},
		{"Target Industry", a.TargetIndustry, "Technology/IT"},
		{"Target Revenue Size", a.TargetRevenueSize, "$1M-$10M"},
		{"Target Employee Size", a.TargetEmployeeSize, "51-200"},
		{"Target Departments", a.TargetDepartments, "Sales"},
		{"Target Region", a.TargetRegion, "North America"},
		{"Target Location", a.TargetLocation, "United States"},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "- **%s**: %s\n", row.label, fallback(row.value, row.def))
	}
	return b.String()
}

// ICPReview renders the derived ICP with the confirmation prompt.
func ICPReview(icp model.ICPDraft) string {
	var b strings.Builder
	b.WriteString("### Ideal Customer Profile\n\n")
	fmt.Fprintf(&b, "- **Industry**: %s\n", fallback(icp.Industry, "Technology/IT"))
	fmt.Fprintf(&b, "- **Location**: %s\n", fallback(icp.Location, "North America"))
	fmt.Fprintf(&b, "- **Company Size**: %s\n", fallback(icp.CompanySize, "51-200 employees"))
	fmt.Fprintf(&b, "- **Decision Makers**: %s\n", fallback(icp.DecisionMakers, "Sales leadership"))
	fmt.Fprintf(&b, "- **Pain Points**: %s\n", fallback(icp.PainPoints, "Pipeline generation"))
	fmt.Fprintf(&b, "- **Tech Stack**: %s\n", fallback(icp.TechStack, "Not identified"))
	b.WriteString("\nReply **confirm** to generate prospects for this profile, or tell us what to change.\n")
	return b.String()
}

// LeadsGrid renders generated prospects as a markdown table.
func LeadsGrid(leads []model.ProspectRecord) string {
	if len(leads) == 0 {
		return "No prospects matched your profile this time. Try broadening the target industry or region and restart the session."
	}

	var b strings.Builder
	b.WriteString("### Your Prospect List\n\n")
	b.WriteString("| " + strings.Join(model.ProspectColumns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(model.ProspectColumns)) + "\n")
	for _, lead := range leads {
		cells := lead.Row()
		for i, cell := range cells {
			cells[i] = fallback(strings.ReplaceAll(cell, "|", "/"), "—")
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

// LeadsDisclaimer is the compliance note posted after the grid.
func LeadsDisclaimer() string {
	return "_Prospect contact names are partially masked for compliance. " +
		"Full contact details are unlocked after handoff to your connected CRM or outreach tool._"
}

// LeadsAction is the follow-up call to action posted after the disclaimer.
func LeadsAction() string {
	return "**Ready to reach out?** Export this list or connect your outreach tool to start engaging these prospects."
}

// ServiceUnavailable is the degraded-summary fragment used when research
// providers return 429/503.
func ServiceUnavailable() string {
	return "Our research service is temporarily unavailable. " +
		"Please wait a moment and restart your Lightning session to try again."
}

// ErrorRetry renders a short diagnosis with an explicit retry action.
func ErrorRetry(diagnosis string) string {
	return fmt.Sprintf("**Something went wrong**: %s\n\nReply **retry** to try again.",
		fallback(diagnosis, "an unexpected error occurred"))
}

// Question renders a flow question with its choices.
func Question(prompt string, choices []string) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n")
	for i, choice := range choices {
		fmt.Fprintf(&b, "\n%d. %s", i+1, choice)
	}
	return b.String()
}
