package flow

import "github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"

// Question is one step of the fixed three-question flow.
type Question struct {
	ID      string
	Step    model.Step
	Prompt  string
	Choices []string
}

// The flow is deliberately fixed: three questions, always in this order.
var questions = []Question{
	{
		ID:     "product_focus",
		Step:   model.StepQ1,
		Prompt: "While we research your company, a few quick questions. What best describes your primary product focus?",
		Choices: []string{
			"Software / SaaS",
			"Professional Services",
			"Hardware / Devices",
			"Marketplace / Platform",
		},
	},
	{
		ID:     "outreach_preference",
		Step:   model.StepQ2,
		Prompt: "How do you prefer to reach new prospects?",
		Choices: []string{
			"Email Outreach",
			"LinkedIn Outreach",
			"Cold Calling",
			"Multi-channel",
		},
	},
	{
		ID:     "lead_handoff",
		Step:   model.StepQ3,
		Prompt: "Once we generate your prospect list, how should we hand it off?",
		Choices: []string{
			"Deliver in chat",
			"Sync to my CRM",
			"Email me the list",
		},
	},
}

// questionForStep returns the question asked at the given step.
func questionForStep(step model.Step) (Question, bool) {
	for _, q := range questions {
		if q.Step == step {
			return q, true
		}
	}
	return Question{}, false
}

// nextStep returns the step that follows an answered question.
func nextStep(step model.Step) model.Step {
	switch step {
	case model.StepEntry:
		return model.StepQ1
	case model.StepQ1:
		return model.StepQ2
	case model.StepQ2:
		return model.StepQ3
	case model.StepQ3:
		return model.StepSummaryReveal
	case model.StepSummaryReveal:
		return model.StepICPReview
	case model.StepICPReview:
		return model.StepConfirmed
	case model.StepConfirmed:
		return model.StepLeadsGenerated
	case model.StepLeadsGenerated:
		return model.StepComplete
	default:
		return model.StepComplete
	}
}

// resolveChoice maps a raw response ("2", or choice text, or free text) to
// the canonical choice string. Free text that matches nothing is kept as-is:
// the flow never rejects an answer, it only canonicalizes known ones.
func resolveChoice(q Question, response string) string {
	trimmed := trimResponse(response)
	if trimmed == "" {
		return trimmed
	}
	if len(trimmed) == 1 && trimmed[0] >= '1' && trimmed[0] <= '9' {
		idx := int(trimmed[0] - '1')
		if idx < len(q.Choices) {
			return q.Choices[idx]
		}
	}
	for _, choice := range q.Choices {
		if equalFold(trimmed, choice) {
			return choice
		}
	}
	return trimmed
}
