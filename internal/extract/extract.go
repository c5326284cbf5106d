// Package extract pulls structured target-audience fields out of
// unstructured LLM research prose. Extraction is driven by the declarative
// rule table in rules.go and never fails: malformed or absent text simply
// yields the documented defaults.
package extract

import (
	"strings"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
)

// Extract evaluates the rule table against the research text and returns a
// fully populated TargetAudience. Idempotent and side-effect free.
func Extract(text string) model.TargetAudience {
	section := locateSection(text)

	values := make(map[string]string, len(Rules))
	for _, rule := range Rules {
		values[rule.Field] = applyRule(rule, section)
	}

	return model.TargetAudience{
		SalesObjective:     values["sales_objective"],
		CompanyRole:        values["company_role"],
		ShortTermGoal:      values["short_term_goal"],
		WebsiteURL:         values["website_url"],
		GTM:                values["gtm"],
		TargetIndustry:     values["target_industry"],
		TargetRevenueSize:  values["target_revenue_size"],
		TargetEmployeeSize: values["target_employee_size"],
		TargetDepartments:  values["target_departments"],
		TargetRegion:       values["target_region"],
		TargetLocation:     values["target_location"],
	}
}

// Defaults returns the audience produced when no field can be extracted.
func Defaults() model.TargetAudience {
	return Extract("")
}

// locateSection returns the target-audience block if the text contains one,
// otherwise the whole text so field patterns still get a chance to match.
func locateSection(text string) string {
	if m := sectionRe.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "" {
		return m[1]
	}
	return text
}

// applyRule tries the rule's patterns in priority order and canonicalizes
// the first non-empty capture against the allow-list.
func applyRule(rule Rule, section string) string {
	var raw string
	for _, re := range rule.Patterns {
		m := re.FindStringSubmatch(section)
		if m == nil {
			continue
		}
		candidate := cleanCapture(m[1])
		if candidate != "" {
			raw = candidate
			break
		}
	}

	if rule.Field == "website_url" {
		return cleanWebsite(raw)
	}

	if raw == "" {
		return rule.Default
	}
	if len(rule.Allowed) == 0 {
		return raw
	}
	return canonicalize(raw, rule.Allowed, rule.Default)
}

// canonicalize maps a raw capture onto the allowed set: an exact
// case-insensitive match wins, then a containment match in either
// direction; anything else falls back to the default.
func canonicalize(raw string, allowed []string, def string) string {
	lower := strings.ToLower(raw)
	for _, option := range allowed {
		if lower == strings.ToLower(option) {
			return option
		}
	}
	for _, option := range allowed {
		optLower := strings.ToLower(option)
		if strings.Contains(lower, optLower) || strings.Contains(optLower, lower) {
			return option
		}
	}
	return def
}

func cleanCapture(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_`")
	s = strings.TrimSpace(strings.TrimSuffix(s, "."))
	return s
}

// cleanWebsite drops placeholder values the models emit when the real URL
// is unknown; a placeholder clears the field rather than surviving as text.
func cleanWebsite(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	for _, placeholder := range websitePlaceholders {
		if lower == placeholder {
			return ""
		}
	}
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		trimmed = "https://" + trimmed
	}
	return trimmed
}
