package extract

import (
	"fmt"
	"regexp"
)

// Rule describes how one target-audience field is pulled out of research
// prose: candidate patterns tried in priority order, the allowed values the
// raw capture is canonicalized against, and the fallback used when nothing
// usable is found.
type Rule struct {
	Field    string
	Patterns []*regexp.Regexp
	Allowed  []string
	Default  string
}

// patternsFor builds the standard pattern ladder for a field label:
// bold-markdown with colon, plain colon, and bracketed-value variants.
// Labels are matched case-insensitively and values run to end of line.
func patternsFor(labels ...string) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, label := range labels {
		out = append(out,
			regexp.MustCompile(fmt.Sprintf(`(?im)\*\*\s*%s\s*:?\s*\*\*\s*:?\s*(.+)$`, label)),
			regexp.MustCompile(fmt.Sprintf(`(?im)^\s*[-*\d.]*\s*%s\s*:\s*\[([^\]\n]+)\]`, label)),
			regexp.MustCompile(fmt.Sprintf(`(?im)^\s*[-*\d.]*\s*%s\s*:\s*(.+)$`, label)),
		)
	}
	return out
}

// sectionRe locates the target-audience block inside the combined provider
// text. The section runs from the heading to the next heading or end of text.
var sectionRe = regexp.MustCompile(`(?is)(?:#+\s*|\*\*\s*)?(?:ideal\s+)?target\s+audience(?:\s+profile)?\s*:?(?:\s*\*\*)?\s*\n(.*?)(?:\n#+\s|\n\*\*[^*\n]+\*\*\s*\n|\z)`)

// Rules is the extraction table for all eleven target-audience fields.
// Field names match the JSON tags on model.TargetAudience.
var Rules = []Rule{
	{
		Field:    "sales_objective",
		Patterns: patternsFor(`sales\s+objective`, `primary\s+objective`),
		Allowed:  []string{"New Customer Acquisition", "Upsell/Cross-sell", "Partner Recruitment", "Brand Awareness"},
		Default:  "New Customer Acquisition",
	},
	{
		Field:    "company_role",
		Patterns: patternsFor(`company\s+role`, `your\s+role`, `role`),
		Allowed:  []string{"Founder/CEO", "Sales Leader", "Marketing Leader", "Business Development", "Individual Contributor"},
		Default:  "Founder/CEO",
	},
	{
		Field:    "short_term_goal",
		Patterns: patternsFor(`short[\s-]?term\s+goal`, `immediate\s+goal`),
		Allowed:  []string{"Book More Meetings", "Build Pipeline", "Close Deals Faster", "Expand Into New Markets"},
		Default:  "Build Pipeline",
	},
	{
		Field:    "website_url",
		Patterns: patternsFor(`website\s+url`, `website`, `company\s+website`),
		Default:  "",
	},
	{
		Field:    "gtm",
		Patterns: patternsFor(`go[\s-]?to[\s-]?market(?:\s+motion)?`, `gtm(?:\s+strategy)?`),
		Allowed:  []string{"Outbound Sales", "Inbound Marketing", "Product-Led Growth", "Channel/Partner-Led"},
		Default:  "Outbound Sales",
	},
	{
		Field:    "target_industry",
		Patterns: patternsFor(`target\s+industr(?:y|ies)`, `industr(?:y|ies)`),
		Allowed: []string{
			"Technology/IT", "Healthcare", "Financial Services", "Manufacturing",
			"Retail/E-commerce", "Education", "Professional Services", "Real Estate",
		},
		Default: "Technology/IT",
	},
	{
		Field:    "target_revenue_size",
		Patterns: patternsFor(`target\s+revenue(?:\s+size)?`, `revenue(?:\s+range)?`),
		Allowed:  []string{"<$1M", "$1M-$10M", "$10M-$50M", "$50M-$100M", "$100M+"},
		Default:  "$1M-$10M",
	},
	{
		Field:    "target_employee_size",
		Patterns: patternsFor(`target\s+employee(?:\s+size)?`, `employee(?:\s+count|\s+size)?`, `company\s+size`),
		Allowed:  []string{"1-10", "11-50", "51-200", "201-500", "501-1000", "1000+"},
		Default:  "51-200",
	},
	{
		Field:    "target_departments",
		Patterns: patternsFor(`target\s+departments?`, `departments?`, `decision[\s-]?making\s+departments?`),
		Allowed:  []string{"Sales", "Marketing", "IT", "Operations", "Finance", "Human Resources", "Executive Leadership"},
		Default:  "Sales",
	},
	{
		Field:    "target_region",
		Patterns: patternsFor(`target\s+regions?`, `regions?`, `geographic\s+focus`),
		Allowed:  []string{"North America", "Europe", "Asia-Pacific", "Latin America", "Middle East & Africa", "Global"},
		Default:  "North America",
	},
	{
		Field:    "target_location",
		Patterns: patternsFor(`target\s+locations?`, `locations?`, `cit(?:y|ies)`),
		Default:  "United States",
	},
}

// websitePlaceholders are literal strings LLMs emit when they do not know
// the real URL. A captured placeholder clears the field instead of keeping it.
var websitePlaceholders = []string{
	"[website url]",
	"[website]",
	"[url]",
	"n/a",
	"not available",
	"unknown",
	"example.com",
	"https://example.com",
}
