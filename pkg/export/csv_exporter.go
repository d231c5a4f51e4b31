package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	// BandBy names the column whose value changes start a new visual band.
	BandBy string
	// Summary holds label/value pairs rendered above the table.
	Summary [][2]string
}

// Bands returns, for every row, the band parity keyed on value changes of the
// BandBy column rather than row index.
func (d Dataset) Bands() []bool {
	bands := make([]bool, len(d.Rows))
	if d.BandBy == "" {
		return bands
	}
	shaded := false
	prev := ""
	for i, row := range d.Rows {
		key := row[d.BandBy]
		if i == 0 || key != prev {
			shaded = !shaded
			prev = key
		}
		bands[i] = shaded
	}
	return bands
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset. Summary pairs are not part
// of the CSV body.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
