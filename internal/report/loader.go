// Package report loads gold and prediction collections, runs the metric
// calculators over the joined scenarios, and assembles the evaluation
// report.
package report

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/lexbench/taxeval/internal/model"
)

// maxLineBytes bounds a single JSONL record. Annotation exports stay well
// under this; anything larger is a malformed file.
const maxLineBytes = 4 * 1024 * 1024

// LoadGold reads gold judgment records from a JSON array (.json) or a
// line-delimited (.jsonl) file. A missing file is fatal: evaluating against
// an absent gold standard is never recoverable.
func LoadGold(path string) ([]model.GoldRecord, error) {
	var records []model.GoldRecord
	if err := loadRecords(path, &records); err != nil {
		return nil, eris.Wrap(err, "load gold")
	}
	return records, nil
}

// LoadPredictions reads prediction records, same formats as LoadGold.
func LoadPredictions(path string) ([]model.PredictionRecord, error) {
	var records []model.PredictionRecord
	if err := loadRecords(path, &records); err != nil {
		return nil, eris.Wrap(err, "load predictions")
	}
	return records, nil
}

func loadRecords[T any](path string, out *[]T) error {
	if strings.HasSuffix(path, ".jsonl") {
		return loadJSONL(path, out)
	}
	return loadJSON(path, out)
}

func loadJSON[T any](path string, out *[]T) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrapf(err, "parse %s", path)
	}
	return nil
}

func loadJSONL[T any](path string, out *[]T) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return eris.Wrapf(err, "parse %s line %d", path, line)
		}
		*out = append(*out, rec)
	}
	if err := sc.Err(); err != nil {
		return eris.Wrapf(err, "scan %s", path)
	}
	return nil
}
