package model

// DocumentID identifies a retrievable unit, e.g. a statute section
// ("26-usc-61" or "ca-rtc-17041").
type DocumentID = string

// Relevance grade bounds. Grades outside [0,3] are clamped by annotation
// tooling before they reach the engine; the metrics treat the value as-is.
const (
	GradeNotRelevant    = 0
	GradeHighlyRelevant = 3
)

// Unit classifies a numeric extraction.
type Unit string

const (
	UnitDollar  Unit = "dollar"
	UnitPercent Unit = "percent"
	UnitCount   Unit = "count"
)

// Period classifies the time basis of a numeric extraction.
type Period string

const (
	PeriodAnnual  Period = "annual"
	PeriodMonthly Period = "monthly"
	PeriodOneTime Period = "one_time"
)

// Scope classifies who a numeric extraction applies to.
type Scope string

const (
	ScopeIndividual Scope = "individual"
	ScopeJoint      Scope = "joint"
	ScopeCorporate  Scope = "corporate"
	ScopeGeneral    Scope = "general"
)

// Span is a character-offset range into a fixed source text. Spans compare
// by exact (start, end) equality, never by overlap.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NumericValue is one extracted numeric fact (threshold, rate, amount).
// Period is optional: statutes often state amounts with no time basis.
type NumericValue struct {
	Value       float64 `json:"value"`
	Unit        Unit    `json:"unit"`
	Period      *Period `json:"period,omitempty"`
	Scope       Scope   `json:"scope,omitempty"`
	IsThreshold bool    `json:"is_threshold,omitempty"`
}

// Attribution links an extracted field value back to the text span that
// justifies it. EvidenceSpan is nil when the annotator or system produced
// the value without citing text.
type Attribution struct {
	FieldValue   string `json:"field_value"`
	EvidenceSpan *Span  `json:"evidence_span,omitempty"`
}

// GoldRecord is one scenario's human-curated annotation. Retrieval fields
// follow the annotation tool's output schema; extraction and reasoning
// fields are present only for scenarios that received full annotation.
//
// MostControlling is optional; scoring falls back to the first relevant
// document. Mandatory is expected to be a subset of Relevant but the engine
// tolerates violations.
type GoldRecord struct {
	ScenarioID      string             `json:"scenario_id"`
	Relevant        []DocumentID       `json:"relevant"`
	RelevanceGrades map[DocumentID]int `json:"relevance_grades,omitempty"`
	MostControlling *DocumentID        `json:"most_controlling,omitempty"`
	Mandatory       []DocumentID       `json:"mandatory,omitempty"`

	ConditionSpans []Span         `json:"condition_spans,omitempty"`
	NumericValues  []NumericValue `json:"numeric_values,omitempty"`
	Deadlines      []string       `json:"deadlines,omitempty"`
	Attributions   []Attribution  `json:"attributions,omitempty"`

	Jurisdictions []string `json:"jurisdictions,omitempty"`
	RequiredForms []string `json:"required_forms,omitempty"`
}

// PredictionRecord is one scenario's system output. RetrievedDocs is ranked
// best-first. ApplicabilityConfidence, when present, is the system's
// probability in [0,1] that its jurisdiction determination is correct.
type PredictionRecord struct {
	ScenarioID    string       `json:"scenario_id"`
	RetrievedDocs []DocumentID `json:"retrieved_docs"`

	ConditionSpans []Span         `json:"condition_spans,omitempty"`
	NumericValues  []NumericValue `json:"numeric_values,omitempty"`
	Deadlines      []string       `json:"deadlines,omitempty"`
	Attributions   []Attribution  `json:"attributions,omitempty"`

	Jurisdictions           []string `json:"jurisdictions,omitempty"`
	RequiredForms           []string `json:"required_forms,omitempty"`
	ApplicabilityConfidence *float64 `json:"applicability_confidence,omitempty"`
}
