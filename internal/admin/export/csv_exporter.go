package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
	_ "time/tzdata"
)

// CSVExporter exports rows to CSV format
type CSVExporter struct {
	writer        *csv.Writer
	options       CSVOptions
	headerWritten bool
}

// CSVOptions configures CSV export behavior
type CSVOptions struct {
	Delimiter       rune
	UseCRLF         bool
	IncludeHeader   bool
	TimestampFormat string
	DecimalPlaces   int
	NullValue       string
	BoolTrueValue   string
	BoolFalseValue  string
	Location        *time.Location
}

// DefaultCSVOptions returns default CSV export options
func DefaultCSVOptions() CSVOptions {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.UTC
	}
	return CSVOptions{
		Delimiter:       ',',
		IncludeHeader:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DecimalPlaces:   2,
		BoolTrueValue:   "sim",
		BoolFalseValue:  "nao",
		Location:        loc,
	}
}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter(w io.Writer, options CSVOptions) *CSVExporter {
	writer := csv.NewWriter(w)
	writer.Comma = options.Delimiter
	writer.UseCRLF = options.UseCRLF
	if options.Location == nil {
		options.Location = time.UTC
	}

	return &CSVExporter{
		writer:  writer,
		options: options,
	}
}

// WriteHeader writes the CSV header row
func (e *CSVExporter) WriteHeader(columns []string) error {
	if !e.options.IncludeHeader || e.headerWritten {
		return nil
	}

	if err := e.writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	e.headerWritten = true
	return nil
}

// WriteMapRows writes rows keyed by column name. Missing keys use the null value.
func (e *CSVExporter) WriteMapRows(rows []map[string]interface{}, columns []string) error {
	if err := e.WriteHeader(columns); err != nil {
		return err
	}

	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = e.formatValue(row[col])
		}

		if err := e.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// Flush writes buffered data and reports any write error
func (e *CSVExporter) Flush() error {
	e.writer.Flush()
	return e.writer.Error()
}

func (e *CSVExporter) formatValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return e.options.NullValue
	case string:
		return v
	case bool:
		if v {
			return e.options.BoolTrueValue
		}
		return e.options.BoolFalseValue
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', e.options.DecimalPlaces, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', e.options.DecimalPlaces, 32)
	case time.Time:
		if v.IsZero() {
			return e.options.NullValue
		}
		return v.In(e.options.Location).Format(e.options.TimestampFormat)
	case *time.Time:
		if v == nil {
			return e.options.NullValue
		}
		return e.formatValue(*v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
