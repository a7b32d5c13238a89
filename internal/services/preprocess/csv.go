package preprocess

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"QuantForge/internal/domain/models"
)

// timeLayouts are tried in order when inferring a time column.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ReadCSV decodes a delimited file with a header row into a table. Column
// kinds are inferred once here: numeric when every non-empty cell parses as
// a float, time when every non-empty cell parses with a known layout,
// categorical otherwise. Empty cells are nulls.
func ReadCSV(r io.Reader) (*models.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header row")
	}
	header := records[0]
	rows := records[1:]

	t := &models.Table{}
	for j, name := range header {
		cells := make([]string, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				cells[i] = rec[j]
			}
		}
		if err := t.Append(inferColumn(name, cells)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func inferColumn(name string, cells []string) *models.Column {
	numeric, timed, nonEmpty := true, true, 0
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		nonEmpty++
		if numeric {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric = false
			}
		}
		if timed {
			if _, ok := parseCellTime(cell); !ok {
				timed = false
			}
		}
	}
	switch {
	case nonEmpty > 0 && numeric:
		vals := make([]float64, len(cells))
		null := make([]bool, len(cells))
		for i, cell := range cells {
			if cell == "" {
				null[i] = true
				continue
			}
			vals[i], _ = strconv.ParseFloat(cell, 64)
		}
		return &models.Column{Name: name, Kind: models.KindNumeric, Nums: vals, Null: null}
	case nonEmpty > 0 && timed:
		vals := make([]time.Time, len(cells))
		null := make([]bool, len(cells))
		for i, cell := range cells {
			if cell == "" {
				null[i] = true
				continue
			}
			vals[i], _ = parseCellTime(cell)
		}
		return &models.Column{Name: name, Kind: models.KindTime, Times: vals, Null: null}
	default:
		null := make([]bool, len(cells))
		for i, cell := range cells {
			if cell == "" {
				null[i] = true
			}
		}
		return &models.Column{Name: name, Kind: models.KindCategorical, Cats: cells, Null: null}
	}
}

func parseCellTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// WriteCSV encodes a table as a delimited file with a header row. Nulls are
// written as empty cells.
func WriteCSV(w io.Writer, t *models.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rows := t.NumRows()
	record := make([]string, t.NumCols())
	for i := 0; i < rows; i++ {
		for j, c := range t.Cols {
			if c.Null[i] {
				record[j] = ""
				continue
			}
			switch c.Kind {
			case models.KindNumeric:
				record[j] = strconv.FormatFloat(c.Nums[i], 'g', -1, 64)
			case models.KindCategorical:
				record[j] = c.Cats[i]
			case models.KindTime:
				record[j] = c.Times[i].Format(time.RFC3339)
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
