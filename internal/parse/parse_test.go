package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EmailOnly(t *testing.T) {
	t.Parallel()

	in := Parse("hi, reach me at Jane.Doe@Acme.COM thanks")

	assert.Equal(t, "jane.doe@acme.com", in.Email)
	assert.Equal(t, "acme.com", in.Domain)
	assert.Empty(t, in.Website)
	assert.Empty(t, in.LinkedIn)
}

func TestParse_EmailDomainNotMistakenForWebsite(t *testing.T) {
	t.Parallel()

	// The loose URL pattern also matches the email's domain tail; it must
	// not be promoted to a website.
	in := Parse("jane@acme.com")

	assert.Equal(t, "jane@acme.com", in.Email)
	assert.Empty(t, in.Website)
}

func TestParse_WebsiteNormalized(t *testing.T) {
	t.Parallel()

	in := Parse("our site is www.acme.io/about check it out")

	assert.Equal(t, "https://www.acme.io/about", in.Website)
}

func TestParse_WebsiteKeepsExplicitScheme(t *testing.T) {
	t.Parallel()

	in := Parse("http://acme.io")

	assert.Equal(t, "http://acme.io", in.Website)
}

func TestParse_LinkedInNotAWebsite(t *testing.T) {
	t.Parallel()

	in := Parse("find us at linkedin.com/company/acme-corp")

	assert.Equal(t, "https://linkedin.com/company/acme-corp", in.LinkedIn)
	assert.Empty(t, in.Website)
}

func TestParse_SocialHostsExcluded(t *testing.T) {
	t.Parallel()

	in := Parse("we post on twitter.com/acme and facebook.com/acme but acme.dev is home")

	assert.Equal(t, "https://acme.dev", in.Website)
}

func TestParse_AllThreeIdentifiers(t *testing.T) {
	t.Parallel()

	in := Parse("jane@acme.com, https://acme.com, https://www.linkedin.com/in/jane-doe")

	assert.Equal(t, "jane@acme.com", in.Email)
	assert.Equal(t, "acme.com", in.Domain)
	assert.Equal(t, "https://acme.com", in.Website)
	assert.Equal(t, "https://www.linkedin.com/in/jane-doe", in.LinkedIn)
}

func TestParse_FirstMatchWins(t *testing.T) {
	t.Parallel()

	in := Parse("first@one.com then second@two.com and one.dev plus two.dev")

	assert.Equal(t, "first@one.com", in.Email)
	assert.Equal(t, "https://one.dev", in.Website)
}

func TestParse_Idempotent(t *testing.T) {
	t.Parallel()

	// Re-parsing the normalized identifiers must reproduce them exactly, so
	// a round trip through rendered output never drifts.
	texts := []string{
		"hi, reach me at Jane.Doe@Acme.COM thanks",
		"our site is www.acme.io/about check it out",
		"find us at linkedin.com/company/acme-corp",
		"jane@acme.com, https://acme.com, https://www.linkedin.com/in/jane-doe",
		"we post on twitter.com/acme but acme.dev is home",
	}
	for _, text := range texts {
		first := Parse(text)

		var parts []string
		for _, p := range []string{first.Email, first.Website, first.LinkedIn} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		second := Parse(strings.Join(parts, " "))

		assert.Equal(t, first, second, "normalized form of %q drifted on re-parse", text)
	}
}

func TestParse_NoIdentifiers(t *testing.T) {
	t.Parallel()

	in := Parse("hello, I want leads")

	assert.True(t, in.Empty())
}

func TestValidate_RequiresAtLeastOne(t *testing.T) {
	t.Parallel()

	problems := Validate(Parse("just chatting"))

	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "email, website, or LinkedIn")
}

func TestValidate_AcceptsParsedInputs(t *testing.T) {
	t.Parallel()

	problems := Validate(Parse("jane@acme.com and acme.com"))

	assert.Empty(t, problems)
}

func TestValidate_RejectsSocialWebsite(t *testing.T) {
	t.Parallel()

	in := Parse("acme.dev")
	in.Website = "https://facebook.com/acme"

	problems := Validate(in)

	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "company website")
}
