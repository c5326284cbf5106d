package model

// TargetAudience holds the eleven structured fields extracted from the
// research summary. Each field is constrained to a small set of allowed
// values with a documented default; the rule table in internal/extract is
// the source of truth for both.
type TargetAudience struct {
	SalesObjective     string `json:"sales_objective"`
	CompanyRole        string `json:"company_role"`
	ShortTermGoal      string `json:"short_term_goal"`
	WebsiteURL         string `json:"website_url"`
	GTM                string `json:"gtm"`
	TargetIndustry     string `json:"target_industry"`
	TargetRevenueSize  string `json:"target_revenue_size"`
	TargetEmployeeSize string `json:"target_employee_size"`
	TargetDepartments  string `json:"target_departments"`
	TargetRegion       string `json:"target_region"`
	TargetLocation     string `json:"target_location"`
}

// CompanySummary is the artifact produced once per session by the background
// coordinator: the combined raw provider text, the extracted audience fields,
// and the rendered fragment shown in chat.
type CompanySummary struct {
	Raw      string         `json:"raw"`
	Audience TargetAudience `json:"audience"`
	HTML     string         `json:"html"`
	Degraded bool           `json:"degraded,omitempty"`
}

// ICPDraft is the editable ideal-customer-profile derived from the audience
// fields. Confirmed is terminal: it is the sole trigger for lead generation.
type ICPDraft struct {
	Industry       string `json:"industry"`
	Location       string `json:"location"`
	CompanySize    string `json:"company_size"`
	DecisionMakers string `json:"decision_makers"`
	PainPoints     string `json:"pain_points"`
	TechStack      string `json:"tech_stack"`
	Confirmed      bool   `json:"confirmed"`
}
