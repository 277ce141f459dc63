package report

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/lexbench/taxeval/internal/model"
)

// Format selects the serialization for a saved report.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Save writes the report to path in the given format.
func Save(path string, rep *model.EvaluationReport, format Format) error {
	var data []byte
	var err error

	switch format {
	case FormatJSON, "":
		data, err = json.MarshalIndent(rep, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(rep)
	default:
		return eris.Errorf("writer: unsupported format %q", format)
	}
	if err != nil {
		return eris.Wrap(err, "writer: marshal report")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "writer: write %s", path)
	}
	return nil
}
