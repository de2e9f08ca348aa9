package problem

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tensorplex-labs/outrank/internal/scoring"
)

const (
	matrixSheet   = "matrix"
	criteriaSheet = "criteria"
)

var criteriaHeaders = []string{"name", "weight", "type", "function", "p", "q", "s"}

// decodeXLSX reads a workbook with two sheets. "matrix" has criterion names in
// its header row and one alternative per row, named in column A. "criteria"
// has one row per criterion with the columns in criteriaHeaders; p, q and s
// may be left blank. Matrix columns are matched to criteria by name.
func decodeXLSX(r io.Reader) (*Problem, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	raw := excelize.Options{RawCellValue: true}

	criteriaRows, err := f.GetRows(criteriaSheet, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", criteriaSheet, err)
	}
	criteria, err := parseCriteriaRows(criteriaRows)
	if err != nil {
		return nil, err
	}

	matrixRows, err := f.GetRows(matrixSheet, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", matrixSheet, err)
	}
	if len(matrixRows) < 2 {
		return nil, fmt.Errorf("sheet %q must have a header row and at least one alternative: %w",
			matrixSheet, scoring.ErrShapeMismatch)
	}

	columns := make(map[string]int, len(matrixRows[0]))
	for c, name := range matrixRows[0] {
		if c > 0 {
			columns[strings.TrimSpace(name)] = c
		}
	}

	p := &Problem{Criteria: criteria}
	for i, row := range matrixRows[1:] {
		if len(row) == 0 {
			continue
		}
		values := make([]float64, len(criteria))
		for j, c := range criteria {
			col, ok := columns[c.Name]
			if !ok {
				return nil, fmt.Errorf("sheet %q has no column for criterion %q: %w",
					matrixSheet, c.Name, scoring.ErrShapeMismatch)
			}
			if col >= len(row) {
				return nil, fmt.Errorf("sheet %q row %d: missing value for %q: %w",
					matrixSheet, i+2, c.Name, scoring.ErrShapeMismatch)
			}
			if values[j], err = strconv.ParseFloat(strings.TrimSpace(row[col]), 64); err != nil {
				return nil, fmt.Errorf("sheet %q row %d, %q: %w", matrixSheet, i+2, c.Name, err)
			}
		}
		p.Alternatives = append(p.Alternatives, strings.TrimSpace(row[0]))
		p.Matrix = append(p.Matrix, values)
	}

	return p, nil
}

func parseCriteriaRows(rows [][]string) ([]Criterion, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q must have a header row and at least one criterion: %w",
			criteriaSheet, scoring.ErrShapeMismatch)
	}

	index := make(map[string]int, len(rows[0]))
	for c, h := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = c
	}
	for _, h := range criteriaHeaders[:2] {
		if _, ok := index[h]; !ok {
			return nil, fmt.Errorf("sheet %q is missing column %q: %w", criteriaSheet, h, scoring.ErrShapeMismatch)
		}
	}

	cell := func(row []string, header string) string {
		c, ok := index[header]
		if !ok || c >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[c])
	}
	optional := func(row []string, header string, line int) (*float64, error) {
		v := cell(row, header)
		if v == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d, %s: %w", criteriaSheet, line, header, err)
		}
		return &parsed, nil
	}

	var criteria []Criterion
	for i, row := range rows[1:] {
		line := i + 2
		name := cell(row, "name")
		if name == "" {
			continue
		}

		weight, err := strconv.ParseFloat(cell(row, "weight"), 64)
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d, weight: %w", criteriaSheet, line, err)
		}

		c := Criterion{
			Name:     name,
			Weight:   weight,
			Type:     cell(row, "type"),
			Function: cell(row, "function"),
		}
		if c.P, err = optional(row, "p", line); err != nil {
			return nil, err
		}
		if c.Q, err = optional(row, "q", line); err != nil {
			return nil, err
		}
		if c.S, err = optional(row, "s", line); err != nil {
			return nil, err
		}
		criteria = append(criteria, c)
	}
	return criteria, nil
}

func (p *Problem) encodeXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", matrixSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(criteriaSheet); err != nil {
		return err
	}

	header := make([]any, 0, len(p.Criteria)+1)
	header = append(header, "alternative")
	for _, c := range p.Criteria {
		header = append(header, c.Name)
	}
	if err := f.SetSheetRow(matrixSheet, "A1", &header); err != nil {
		return err
	}

	labels := p.Labels()
	for i, values := range p.Matrix {
		row := make([]any, 0, len(values)+1)
		row = append(row, labels[i])
		for _, v := range values {
			row = append(row, v)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(matrixSheet, cell, &row); err != nil {
			return err
		}
	}

	headers := make([]any, len(criteriaHeaders))
	for i, h := range criteriaHeaders {
		headers[i] = h
	}
	if err := f.SetSheetRow(criteriaSheet, "A1", &headers); err != nil {
		return err
	}
	for i, c := range p.Criteria {
		row := []any{c.Name, c.Weight, c.Type, c.Function, optionalCell(c.P), optionalCell(c.Q), optionalCell(c.S)}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(criteriaSheet, cell, &row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func optionalCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
