package leads

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
)

const maskToken = "*****"

var titleCaser = cases.Title(language.English)

// MaskName reduces a full contact name to a title-cased first name plus the
// fixed mask: "jane van der berg" becomes "Jane *****". Already-masked names
// pass through unchanged, so sanitizing twice is safe.
func MaskName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	first := strings.Fields(trimmed)[0]
	return titleCaser.String(strings.ToLower(first)) + " " + maskToken
}

// SanitizeRecords masks the decision-maker name on every record, in place.
// The full name must never leave this package: callers post and persist only
// the sanitized copy.
func SanitizeRecords(records []model.ProspectRecord) {
	for i := range records {
		records[i].DecisionMaker = MaskName(records[i].DecisionMaker)
	}
}

// decisionMakerColumn is the zero-based position of the decision-maker cell
// in the thirteen-column grid, for raw-text responses.
const decisionMakerColumn = 9

// SanitizeRawGrid masks the decision-maker column of a pipe-delimited
// markdown table returned as raw text. Rows with an unexpected column count
// and non-table lines are left untouched; header and separator rows are
// recognized and skipped.
func SanitizeRawGrid(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "|") {
			continue
		}
		cells := strings.Split(trimmed, "|")
		// Leading and trailing pipes produce empty first/last cells.
		if len(cells) != len(model.ProspectColumns)+2 {
			continue
		}
		cell := strings.TrimSpace(cells[decisionMakerColumn+1])
		if cell == "" || isHeaderCell(cell) || isSeparatorCell(cell) {
			continue
		}
		cells[decisionMakerColumn+1] = " " + MaskName(cell) + " "
		lines[i] = strings.Join(cells, "|")
	}
	return strings.Join(lines, "\n")
}

func isHeaderCell(cell string) bool {
	return strings.EqualFold(cell, model.ProspectColumns[decisionMakerColumn])
}

func isSeparatorCell(cell string) bool {
	return strings.Trim(cell, ":- ") == ""
}
