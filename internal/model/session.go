package model

import "time"

// Step identifies a position in the Lightning question flow.
type Step string

const (
	StepEntry          Step = "entry"
	StepQ1             Step = "q1_product_focus"
	StepQ2             Step = "q2_outreach_preference"
	StepQ3             Step = "q3_lead_handoff"
	StepSummaryReveal  Step = "summary_reveal"
	StepICPReview      Step = "icp_review"
	StepConfirmed      Step = "confirmed"
	StepLeadsGenerated Step = "leads_generated"
	StepComplete       Step = "complete"
)

// IsValid reports whether s is a known flow step.
func (s Step) IsValid() bool {
	switch s {
	case StepEntry, StepQ1, StepQ2, StepQ3, StepSummaryReveal,
		StepICPReview, StepConfirmed, StepLeadsGenerated, StepComplete:
		return true
	}
	return false
}

// Terminal reports whether the flow has finished at this step.
func (s Step) Terminal() bool {
	return s == StepComplete
}

// SessionRecord is the persisted state of one Lightning session. It is
// overwritten wholesale on every transition; the previous record is cleared
// at session entry so nothing leaks across sessions.
type SessionRecord struct {
	ID        string            `json:"id"`
	Step      Step              `json:"step"`
	Inputs    LightningInputs   `json:"inputs"`
	Answers   map[string]string `json:"answers,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}
