package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCSVFormatValue(t *testing.T) {
	opts := DefaultCSVOptions()
	opts.Location = time.UTC
	exporter := NewCSVExporter(&bytes.Buffer{}, opts)
	at := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"nil", nil, ""},
		{"string", "Maria", "Maria"},
		{"true", true, "sim"},
		{"false", false, "nao"},
		{"int64", int64(360), "360"},
		{"float rounds to cents", 4114.4549, "4114.45"},
		{"time", at, "2024-05-10 15:30:00"},
		{"nil time pointer", (*time.Time)(nil), ""},
		{"zero time", time.Time{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exporter.formatValue(tt.value))
		})
	}
}

func TestCSVHeaderWrittenOnce(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewCSVExporter(&buf, DefaultCSVOptions())
	columns := []string{"Nome", "CPF"}

	require.NoError(t, exporter.WriteMapRows([]map[string]interface{}{{"Nome": "Maria"}}, columns))
	require.NoError(t, exporter.WriteMapRows([]map[string]interface{}{{"Nome": "Joao", "CPF": "529.982.247-25"}}, columns))
	require.NoError(t, exporter.Flush())

	assert.Equal(t, "Nome,CPF\nMaria,\nJoao,529.982.247-25\n", buf.String())
}

func TestWorkbookSheets(t *testing.T) {
	workbook := NewWorkbook(DefaultExcelOptions())
	defer workbook.Close()

	require.NoError(t, workbook.AddSheet("Imobiliario", []string{"Cliente", "Parcela"}, []map[string]interface{}{
		{"Cliente": "Maria", "Parcela": 4114.45},
	}))
	require.NoError(t, workbook.AddSheet("FGTS", []string{"Nome"}, nil))
	assert.Equal(t, 2, workbook.Sheets())

	var buf bytes.Buffer
	require.NoError(t, workbook.Write(&buf))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{"Imobiliario", "FGTS"}, file.GetSheetList())
	value, err := file.GetCellValue("Imobiliario", "B2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "4114.45", value)
}

func TestEmptyWorkbookFails(t *testing.T) {
	workbook := NewWorkbook(DefaultExcelOptions())
	defer workbook.Close()

	assert.Error(t, workbook.Write(&bytes.Buffer{}))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 10.0, clamp(2, 10, 50))
	assert.Equal(t, 50.0, clamp(80, 10, 50))
	assert.Equal(t, 24.0, clamp(24, 10, 50))
}
