package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/admin/export"
	"simulacred/simulation-portal/simulation-portal-backend/internal/events"
)

var (
	// ErrUnknownProduct is returned for products without an export layout
	ErrUnknownProduct = errors.New("unknown product")
	// ErrUnknownFormat is returned for unsupported export formats
	ErrUnknownFormat = errors.New("unknown export format")
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Dataset is a product table ready for export
type Dataset struct {
	Product string
	Sheet   string
	Columns []string
	Rows    []map[string]interface{}
}

type exportColumn struct {
	Header string
	Expr   string
}

type exportLayout struct {
	Sheet   string
	Table   string
	Filter  string
	Columns []exportColumn
}

func (l exportLayout) headers() []string {
	headers := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		headers[i] = c.Header
	}
	return headers
}

func (l exportLayout) query() string {
	exprs := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		exprs[i] = c.Expr
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), l.Table)
	if l.Filter != "" {
		query += " WHERE " + l.Filter
	}
	return query + " ORDER BY created_at DESC"
}

var exportLayouts = map[string]exportLayout{
	events.ProductRealEstate: {
		Sheet: "Imobiliario",
		Table: "simulations",
		Columns: []exportColumn{
			{"ID", "id::text"},
			{"Cliente", "client_name"},
			{"E-mail", "client_email"},
			{"Telefone", "client_phone"},
			{"CPF", "client_cpf"},
			{"Valor do Imovel", "property_value::float8"},
			{"Entrada (%)", "down_payment_percentage::float8"},
			{"Entrada", "down_payment_amount::float8"},
			{"Valor Financiado", "loan_amount::float8"},
			{"Prazo (anos)", "loan_term_years"},
			{"Taxa (% a.a.)", "interest_rate::float8"},
			{"Parcela", "monthly_payment::float8"},
			{"Total Pago", "total_payment::float8"},
			{"Total de Juros", "total_interest::float8"},
			{"Status", "proposal_status"},
			{"Criado em", "created_at"},
		},
	},
	events.ProductVehicle: {
		Sheet:  "Veiculos",
		Table:  "vehicle_simulations",
		Filter: "deleted_at IS NULL",
		Columns: []exportColumn{
			{"ID", "id::text"},
			{"Cliente", "client_name"},
			{"E-mail", "client_email"},
			{"Telefone", "client_phone"},
			{"CPF", "client_cpf"},
			{"Tipo", "vehicle_type"},
			{"Marca", "vehicle_brand"},
			{"Modelo", "vehicle_model"},
			{"Ano", "vehicle_year"},
			{"Valor do Veiculo", "vehicle_value::float8"},
			{"Entrada (%)", "down_payment_percentage::float8"},
			{"Valor Financiado", "loan_amount::float8"},
			{"Prazo (meses)", "loan_term_months"},
			{"Taxa (% a.m.)", "interest_rate::float8"},
			{"Parcela", "monthly_payment::float8"},
			{"Total Pago", "total_payment::float8"},
			{"Criado em", "created_at"},
		},
	},
	events.ProductFGTS: {
		Sheet:  "FGTS",
		Table:  "fgts_simulations",
		Filter: "deleted_at IS NULL",
		Columns: []exportColumn{
			{"ID", "id::text"},
			{"Nome Completo", "nome_completo"},
			{"CPF", "cpf"},
			{"RG", "rg"},
			{"Telefone", "telefone"},
			{"Criado em", "created_at"},
		},
	},
}

// ExportProducts is the sheet order of the full workbook
var ExportProducts = []string{events.ProductRealEstate, events.ProductVehicle, events.ProductFGTS}

// Exporter writes product tables as CSV or XLSX
type Exporter struct {
	store  ExportStore
	logger *zap.Logger
}

// NewExporter creates a new exporter
func NewExporter(store ExportStore, logger *zap.Logger) *Exporter {
	return &Exporter{store: store, logger: logger}
}

// ContentType returns the MIME type of an export format
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename names an export download
func Filename(product, format string, at time.Time) string {
	return fmt.Sprintf("%s-%s.%s", strings.ReplaceAll(product, "_", "-"), at.Format("20060102-150405"), format)
}

// ValidateRequest checks the product and format before any data is loaded
func ValidateRequest(product, format string) error {
	if _, ok := exportLayouts[product]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, product)
	}
	if format != FormatCSV && format != FormatXLSX {
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return nil
}

// Export writes one product in the requested format
func (e *Exporter) Export(ctx context.Context, w io.Writer, product, format string) error {
	if err := ValidateRequest(product, format); err != nil {
		return err
	}

	dataset, err := e.store.ExportRows(ctx, product)
	if err != nil {
		return err
	}

	switch format {
	case FormatCSV:
		err = writeCSV(w, dataset)
	default:
		err = writeWorkbook(w, []*Dataset{dataset})
	}
	if err != nil {
		return err
	}

	e.logger.Info("Export written",
		zap.String("product", product),
		zap.String("format", format),
		zap.Int("rows", len(dataset.Rows)))
	return nil
}

// Workbook writes every product as its own sheet
func (e *Exporter) Workbook(ctx context.Context, w io.Writer) error {
	datasets := make([]*Dataset, 0, len(ExportProducts))
	for _, product := range ExportProducts {
		dataset, err := e.store.ExportRows(ctx, product)
		if err != nil {
			return err
		}
		datasets = append(datasets, dataset)
	}
	return writeWorkbook(w, datasets)
}

func writeCSV(w io.Writer, dataset *Dataset) error {
	exporter := export.NewCSVExporter(w, export.DefaultCSVOptions())
	if err := exporter.WriteMapRows(dataset.Rows, dataset.Columns); err != nil {
		return err
	}
	return exporter.Flush()
}

func writeWorkbook(w io.Writer, datasets []*Dataset) error {
	workbook := export.NewWorkbook(export.DefaultExcelOptions())
	defer workbook.Close()

	for _, dataset := range datasets {
		if err := workbook.AddSheet(dataset.Sheet, dataset.Columns, dataset.Rows); err != nil {
			return fmt.Errorf("failed to write %s sheet: %w", dataset.Product, err)
		}
	}
	return workbook.Write(w)
}
