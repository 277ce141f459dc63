// Package export writes evaluation reports to spreadsheet files for
// sharing outside the CLI.
package export

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/lexbench/taxeval/internal/model"
)

// WriteReport writes the report to an XLSX workbook at path, one sheet
// per metric family plus a summary sheet.
func WriteReport(path string, rep *model.EvaluationReport) error {
	if rep == nil {
		return eris.New("export: nil report")
	}

	f := xlsx.NewFile()

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	addStringRow(summary, "Evaluation Date", rep.EvaluationDate.Format(time.RFC3339))
	addStringRow(summary, "Scenario Count", strconv.Itoa(rep.ScenarioCount))

	families := []struct {
		name    string
		metrics model.Metrics
	}{
		{"Retrieval", rep.RetrievalMetrics},
		{"Extraction", rep.ExtractionMetrics},
		{"Reasoning", rep.ReasoningMetrics},
	}
	for _, fam := range families {
		if err := addMetricsSheet(f, fam.name, fam.metrics); err != nil {
			return err
		}
	}

	return eris.Wrap(f.Save(path), "export: save workbook")
}

func addMetricsSheet(f *xlsx.File, name string, m model.Metrics) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}

	header := sheet.AddRow()
	header.AddCell().SetString("Metric")
	header.AddCell().SetString("Value")

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		row := sheet.AddRow()
		row.AddCell().SetString(k)
		v := m[k]
		if math.IsInf(v, 0) || math.IsNaN(v) {
			// Non-finite sentinels keep their textual form.
			row.AddCell().SetString(strconv.FormatFloat(v, 'g', -1, 64))
		} else {
			row.AddCell().SetFloat(v)
		}
	}
	return nil
}

func addStringRow(sheet *xlsx.Sheet, label, value string) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetString(value)
}
