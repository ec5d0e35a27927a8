package model

// ResultCode is the outcome tag an agent's PhaseResult carries.
type ResultCode string

const (
	ResultComplete          ResultCode = "complete"
	ResultFailed            ResultCode = "failed"
	ResultBlocked           ResultCode = "blocked"
	ResultSubphaseComplete  ResultCode = "subphase_complete"
	ResultTriageComplete    ResultCode = "triage_complete"
)

// TriageAssessment is the size/risk/impact/complexity judgment a triage
// phase records. Overwrite-with-provided-only semantics: a nil pointer
// field leaves the item's existing value untouched.
type TriageAssessment struct {
	Size       *Size  `json:"size,omitempty"`
	Complexity *Level `json:"complexity,omitempty"`
	Risk       *Level `json:"risk,omitempty"`
	Impact     *Level `json:"impact,omitempty"`
	// NextStatus is the status triage promotes the item to: "scoping" or "ready".
	NextStatus Status `json:"next_status,omitempty"`
}

// FollowUp is a phase-generated suggestion that becomes a new backlog item.
type FollowUp struct {
	Title         string `json:"title"`
	Context       string `json:"context,omitempty"`
	SuggestedSize Size   `json:"suggested_size,omitempty"`
	SuggestedRisk Level  `json:"suggested_risk,omitempty"`
}

// PhaseResult is the structured output an agent invocation produces.
type PhaseResult struct {
	ResultCode ResultCode `json:"result_code"`
	Summary    string     `json:"summary"`

	FollowUps []FollowUp `json:"follow_ups,omitempty"`

	// Set when ResultCode == triage_complete.
	Triage *TriageAssessment `json:"triage,omitempty"`

	// Set when ResultCode == blocked.
	BlockedReason  string `json:"blocked_reason,omitempty"`
	BlockedType    string `json:"blocked_type,omitempty"`
	UnblockContext string `json:"unblock_context,omitempty"`

	// Set when ResultCode == failed.
	FailureReason string `json:"failure_reason,omitempty"`
}
