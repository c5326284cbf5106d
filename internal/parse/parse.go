// Package parse extracts typed research identifiers from freeform chat text.
package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
)

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	urlRe      = regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?[a-z0-9][a-z0-9\-]*(?:\.[a-z0-9\-]+)+(?:/[^\s,;]*)?`)
	linkedinRe = regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?linkedin\.com/(?:in|company)/[A-Za-z0-9_\-./%]+`)
)

// socialHosts are URL hosts that never count as a company website.
var socialHosts = []string{
	"linkedin.com",
	"facebook.com",
	"twitter.com",
	"x.com",
	"instagram.com",
}

// Parse extracts the first email, first non-social website URL, and first
// LinkedIn profile URL from text. The website is normalized to carry an
// https:// scheme and the domain is derived from the email address. Only
// fields actually found are populated; Parse never fails.
func Parse(text string) model.LightningInputs {
	var in model.LightningInputs

	if email := emailRe.FindString(text); email != "" {
		in.Email = strings.ToLower(email)
		if at := strings.LastIndex(in.Email, "@"); at >= 0 {
			in.Domain = in.Email[at+1:]
		}
	}

	if li := linkedinRe.FindString(text); li != "" {
		in.LinkedIn = ensureScheme(li)
	}

	for _, candidate := range urlRe.FindAllString(text, -1) {
		if isSocial(candidate) {
			continue
		}
		// An email address also matches the loose URL pattern; skip the
		// domain tail of the email we already captured.
		if in.Email != "" && strings.Contains(in.Email, strings.ToLower(candidate)) {
			continue
		}
		in.Website = ensureScheme(candidate)
		break
	}

	return in
}

// Validate checks that at least one identifier is present and that each
// present identifier is well-formed. It returns human-readable problems;
// an empty slice means the inputs are usable.
func Validate(in model.LightningInputs) []string {
	var problems []string

	if in.Empty() {
		problems = append(problems, "please share an email, website, or LinkedIn URL so we can research your company")
		return problems
	}

	if in.Email != "" && !emailRe.MatchString(in.Email) {
		problems = append(problems, fmt.Sprintf("%q does not look like a valid email address", in.Email))
	}
	if in.Website != "" {
		bare := strings.TrimPrefix(strings.TrimPrefix(in.Website, "https://"), "http://")
		if !urlRe.MatchString(bare) || isSocial(bare) {
			problems = append(problems, fmt.Sprintf("%q does not look like a valid company website", in.Website))
		}
	}
	if in.LinkedIn != "" && !linkedinRe.MatchString(in.LinkedIn) {
		problems = append(problems, fmt.Sprintf("%q does not look like a LinkedIn profile URL", in.LinkedIn))
	}

	return problems
}

func ensureScheme(rawURL string) string {
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return rawURL
	}
	return "https://" + rawURL
}

func isSocial(rawURL string) bool {
	host := strings.ToLower(rawURL)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "www.")
	if slash := strings.IndexByte(host, '/'); slash >= 0 {
		host = host[:slash]
	}
	for _, social := range socialHosts {
		if host == social || strings.HasSuffix(host, "."+social) {
			return true
		}
	}
	return false
}
