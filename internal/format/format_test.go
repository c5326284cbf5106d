package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
)

func TestRenderHTML_Table(t *testing.T) {
	t.Parallel()

	html, err := RenderHTML("| A | B |\n| --- | --- |\n| 1 | 2 |\n")

	require.NoError(t, err)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<td>1</td>")
}

func TestFallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "value", fallback("value", "def"))
	assert.Equal(t, "def", fallback("", "def"))
	assert.Equal(t, "def", fallback("   ", "def"))
	assert.Equal(t, "def", fallback("null", "def"))
	assert.Equal(t, "def", fallback("UNDEFINED", "def"))
}

func TestTargetAudienceText_DefaultsForMissingFields(t *testing.T) {
	t.Parallel()

	out := TargetAudienceText(model.TargetAudience{})

	assert.Contains(t, out, "**Target Industry**: Technology/IT")
	assert.Contains(t, out, "**Target Region**: North America")
	assert.Contains(t, out, "**Website**: Not provided")
	assert.NotContains(t, out, "null")
	assert.NotContains(t, out, "undefined")
}

func TestTargetAudienceText_AllElevenRows(t *testing.T) {
	t.Parallel()

	out := TargetAudienceText(model.TargetAudience{})

	assert.Equal(t, 11, strings.Count(out, "\n- **"))
}

func TestCompanyProfile_EmptyRawFallsBack(t *testing.T) {
	t.Parallel()

	out := CompanyProfile("", model.TargetAudience{})

	assert.Contains(t, out, "## Company Profile")
	assert.Contains(t, out, "could not gather a detailed profile")
	assert.Contains(t, out, "### Target Audience")
}

func TestICPReview_ConfirmPrompt(t *testing.T) {
	t.Parallel()

	out := ICPReview(model.ICPDraft{Industry: "Healthcare"})

	assert.Contains(t, out, "**Industry**: Healthcare")
	assert.Contains(t, out, "Reply **confirm**")
}

func TestLeadsGrid_Empty(t *testing.T) {
	t.Parallel()

	out := LeadsGrid(nil)

	assert.Contains(t, out, "No prospects matched")
}

func TestLeadsGrid_RendersRows(t *testing.T) {
	t.Parallel()

	out := LeadsGrid([]model.ProspectRecord{
		{Company: "Acme", Website: "acme.com", DecisionMaker: "Jane *****"},
	})

	assert.Contains(t, out, "| Company |")
	assert.Contains(t, out, "| Acme |")
	assert.Contains(t, out, "Jane *****")
	// Empty cells render as an em-dash placeholder, never blank.
	assert.Contains(t, out, "—")
}

func TestLeadsGrid_EscapesPipes(t *testing.T) {
	t.Parallel()

	out := LeadsGrid([]model.ProspectRecord{{Company: "Acme | Inc"}})

	assert.Contains(t, out, "Acme / Inc")
}

func TestServiceUnavailable_MentionsRestart(t *testing.T) {
	t.Parallel()

	out := ServiceUnavailable()

	assert.Contains(t, out, "temporarily unavailable")
	assert.Contains(t, out, "restart")
}

func TestErrorRetry(t *testing.T) {
	t.Parallel()

	out := ErrorRetry("the lead service timed out")
	assert.Contains(t, out, "the lead service timed out")
	assert.Contains(t, out, "**retry**")

	out = ErrorRetry("")
	assert.Contains(t, out, "an unexpected error occurred")
}

func TestQuestion_NumbersChoices(t *testing.T) {
	t.Parallel()

	out := Question("Pick one:", []string{"Alpha", "Beta"})

	assert.Contains(t, out, "Pick one:")
	assert.Contains(t, out, "1. Alpha")
	assert.Contains(t, out, "2. Beta")
}
