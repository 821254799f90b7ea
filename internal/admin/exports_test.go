package admin

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/events"
)

type fakeExportStore struct {
	datasets map[string]*Dataset
	err      error
}

func (f *fakeExportStore) ExportRows(_ context.Context, product string) (*Dataset, error) {
	if f.err != nil {
		return nil, f.err
	}
	dataset, ok := f.datasets[product]
	if !ok {
		return nil, ErrUnknownProduct
	}
	return dataset, nil
}

func newFakeExportStore() *fakeExportStore {
	created := time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)
	datasets := make(map[string]*Dataset)
	for _, product := range ExportProducts {
		layout := exportLayouts[product]
		datasets[product] = &Dataset{Product: product, Sheet: layout.Sheet, Columns: layout.headers(), Rows: []map[string]interface{}{}}
	}
	datasets[events.ProductRealEstate].Rows = append(datasets[events.ProductRealEstate].Rows, map[string]interface{}{
		"ID":              "3f2a9c1e-7b4d-4e2a-9c1e-7b4d4e2a9c1e",
		"Cliente":         "Maria Silva",
		"E-mail":          "maria@example.com",
		"Valor do Imovel": 500000.0,
		"Prazo (anos)":    int64(30),
		"Parcela":         4114.45,
		"Status":          "pending",
		"Criado em":       created,
	})
	datasets[events.ProductFGTS].Rows = append(datasets[events.ProductFGTS].Rows, map[string]interface{}{
		"ID":            "9b1c5e2a-0d4f-4a8e-b7c3-2f6e1d9a8c70",
		"Nome Completo": "Joao Souza",
		"CPF":           "529.982.247-25",
		"RG":            "12.345.678-9",
		"Telefone":      "(11) 98765-4321",
		"Criado em":     created,
	})
	return &fakeExportStore{datasets: datasets}
}

func TestExportLayoutQuery(t *testing.T) {
	query := exportLayouts[events.ProductVehicle].query()
	assert.True(t, strings.HasPrefix(query, "SELECT id::text, client_name"))
	assert.Contains(t, query, "FROM vehicle_simulations WHERE deleted_at IS NULL")
	assert.True(t, strings.HasSuffix(query, "ORDER BY created_at DESC"))

	query = exportLayouts[events.ProductRealEstate].query()
	assert.NotContains(t, query, "WHERE")
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(events.ProductFGTS, FormatXLSX))
	assert.ErrorIs(t, ValidateRequest("boat", FormatCSV), ErrUnknownProduct)
	assert.ErrorIs(t, ValidateRequest(events.ProductVehicle, "pdf"), ErrUnknownFormat)
}

func TestExportCSV(t *testing.T) {
	exporter := NewExporter(newFakeExportStore(), zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, exporter.Export(context.Background(), &buf, events.ProductRealEstate, FormatCSV))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, exportLayouts[events.ProductRealEstate].headers(), records[0])

	row := records[1]
	assert.Equal(t, "Maria Silva", row[1])
	assert.Equal(t, "", row[3])
	assert.Equal(t, "500000.00", row[5])
	assert.Equal(t, "30", row[9])
	assert.Equal(t, "4114.45", row[11])
	// created_at is written in Sao Paulo time
	assert.Equal(t, "2024-05-10 12:30:00", row[15])
}

func TestExportXLSX(t *testing.T) {
	exporter := NewExporter(newFakeExportStore(), zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, exporter.Export(context.Background(), &buf, events.ProductFGTS, FormatXLSX))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{"FGTS"}, file.GetSheetList())
	name, err := file.GetCellValue("FGTS", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Joao Souza", name)
	header, err := file.GetCellValue("FGTS", "A1")
	require.NoError(t, err)
	assert.Equal(t, "ID", header)
}

func TestExportWorkbook(t *testing.T) {
	exporter := NewExporter(newFakeExportStore(), zap.NewNop())

	var buf bytes.Buffer
	require.NoError(t, exporter.Workbook(context.Background(), &buf))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{"Imobiliario", "Veiculos", "FGTS"}, file.GetSheetList())
	rows, err := file.GetRows("Veiculos")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExportStoreFailure(t *testing.T) {
	exporter := NewExporter(&fakeExportStore{err: errors.New("db down")}, zap.NewNop())

	var buf bytes.Buffer
	err := exporter.Export(context.Background(), &buf, events.ProductVehicle, FormatCSV)
	assert.EqualError(t, err, "db down")
	assert.Zero(t, buf.Len())
}

func TestFilenameAndContentType(t *testing.T) {
	at := time.Date(2024, 5, 10, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "real-estate-20240510-020000.xlsx", Filename(events.ProductRealEstate, FormatXLSX, at))
	assert.Equal(t, "text/csv; charset=utf-8", ContentType(FormatCSV))
	assert.Contains(t, ContentType(FormatXLSX), "spreadsheetml")
}
