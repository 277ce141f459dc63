package model

import (
	"encoding/json"
	"math"
	"time"

	"github.com/rotisserie/eris"
)

// Metrics maps a metric name (e.g. "recall@10", "mrr", "ndcg@5") to its
// score. Per-k retrieval metrics carry "_std" companions holding the
// population standard deviation across scenarios.
type Metrics map[string]float64

// MarshalJSON encodes non-finite scores as the strings "Infinity",
// "-Infinity", and "NaN". The value-MAE sentinel for scenarios with nothing
// to compare is +Inf, which bare JSON numbers cannot carry, and dropping or
// zeroing it would hide the signal.
func (m Metrics) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch {
		case math.IsInf(v, 1):
			out[k] = "Infinity"
		case math.IsInf(v, -1):
			out[k] = "-Infinity"
		case math.IsNaN(v):
			out[k] = "NaN"
		default:
			out[k] = v
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts numbers and the non-finite string forms written by
// MarshalJSON.
func (m *Metrics) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Metrics, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case float64:
			out[k] = t
		case string:
			switch t {
			case "Infinity":
				out[k] = math.Inf(1)
			case "-Infinity":
				out[k] = math.Inf(-1)
			case "NaN":
				out[k] = math.NaN()
			default:
				return eris.Errorf("metrics: invalid score %q for %s", t, k)
			}
		default:
			return eris.Errorf("metrics: invalid score for %s", k)
		}
	}
	*m = out
	return nil
}

// EvaluationReport is the single output of one evaluation run.
type EvaluationReport struct {
	EvaluationDate    time.Time `json:"evaluation_date" yaml:"evaluation_date"`
	ScenarioCount     int       `json:"scenario_count" yaml:"scenario_count"`
	RetrievalMetrics  Metrics   `json:"retrieval_metrics" yaml:"retrieval_metrics"`
	ExtractionMetrics Metrics   `json:"extraction_metrics" yaml:"extraction_metrics"`
	ReasoningMetrics  Metrics   `json:"reasoning_metrics" yaml:"reasoning_metrics"`
}

// RunStatus represents the state of a stored evaluation run.
type RunStatus string

const (
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one persisted evaluation run: which files were scored and the
// report that came out.
type Run struct {
	ID              string            `json:"id"`
	GoldPath        string            `json:"gold_path"`
	PredictionsPath string            `json:"predictions_path"`
	Status          RunStatus         `json:"status"`
	Report          *EvaluationReport `json:"report,omitempty"`
	Error           string            `json:"error,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}
