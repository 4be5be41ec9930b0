// Package importer reads result files: CSV with a date,score,total
// header (optionally followed by quizSource) or JSON shaped as
// {"results": [{"date": ..., "score": ..., "total": ...}]}.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"quiz-results-service/internal/domain"
)

var ErrBadHeader = errors.New("CSV header must include: date,score,total")

// ResultFile is the JSON document format.
type ResultFile struct {
	Results []domain.RawResult `json:"results"`
}

// ReadFile picks the parser from the file extension.
func ReadFile(path string) ([]domain.RawResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(f)
	case ".csv":
		return ParseCSV(f)
	default:
		return nil, fmt.Errorf("unsupported result file %q: want .csv or .json", path)
	}
}

// ParseJSON reads a ResultFile document.
func ParseJSON(r io.Reader) ([]domain.RawResult, error) {
	var file ResultFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode result file: %w", err)
	}
	return file.Results, nil
}

// ParseCSV reads results from CSV. Blank lines are skipped; column order
// follows the header.
func ParseCSV(r io.Reader) ([]domain.RawResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columns(header)
	if err != nil {
		return nil, err
	}

	var results []domain.RawResult
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := reader.FieldPos(0)
		raw, err := parseRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		results = append(results, raw)
	}
	return results, nil
}

type columnIndex struct {
	date, score, total, source int
}

func columns(header []string) (columnIndex, error) {
	idx := columnIndex{date: -1, score: -1, total: -1, source: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			idx.date = i
		case "score":
			idx.score = i
		case "total":
			idx.total = i
		case "quizsource", "quiz_source", "source":
			idx.source = i
		}
	}
	if idx.date < 0 || idx.score < 0 || idx.total < 0 {
		return idx, ErrBadHeader
	}
	return idx, nil
}

func parseRow(record []string, cols columnIndex) (domain.RawResult, error) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	score, err := strconv.Atoi(field(cols.score))
	if err != nil {
		return domain.RawResult{}, fmt.Errorf("score %q: %w", field(cols.score), err)
	}
	total, err := strconv.Atoi(field(cols.total))
	if err != nil {
		return domain.RawResult{}, fmt.Errorf("total %q: %w", field(cols.total), err)
	}
	return domain.RawResult{
		Date:       field(cols.date),
		Score:      score,
		Total:      total,
		QuizSource: field(cols.source),
	}, nil
}
