package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExcelOptions configures workbook output
type ExcelOptions struct {
	FreezeHeader   bool
	AutoFilter     bool
	AutoWidth      bool
	DateFormat     string
	CurrencyFormat string
	HeaderStyle    *ExcelStyleConfig
	Location       *time.Location
}

// ExcelStyleConfig defines style for cells
type ExcelStyleConfig struct {
	FontBold  bool
	FontSize  int
	FontColor string
	FillColor string
	Alignment string
	Border    bool
}

// DefaultExcelOptions returns default workbook options
func DefaultExcelOptions() ExcelOptions {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.UTC
	}
	return ExcelOptions{
		FreezeHeader:   true,
		AutoFilter:     true,
		AutoWidth:      true,
		DateFormat:     "dd/mm/yyyy hh:mm",
		CurrencyFormat: "#,##0.00",
		HeaderStyle: &ExcelStyleConfig{
			FontBold:  true,
			FontSize:  11,
			FillColor: "1E3A8A",
			FontColor: "FFFFFF",
			Alignment: "center",
			Border:    true,
		},
		Location: loc,
	}
}

// Workbook builds a multi-sheet xlsx file
type Workbook struct {
	file        *excelize.File
	options     ExcelOptions
	sheets      int
	headerStyle int
	dateStyle   int
	numberStyle int
}

// NewWorkbook creates an empty workbook
func NewWorkbook(options ExcelOptions) *Workbook {
	if options.Location == nil {
		options.Location = time.UTC
	}
	return &Workbook{
		file:    excelize.NewFile(),
		options: options,
	}
}

// AddSheet adds a sheet with a header row and one row per map
func (w *Workbook) AddSheet(name string, columns []string, rows []map[string]interface{}) error {
	if err := w.ensureStyles(); err != nil {
		return err
	}

	// the first sheet reuses the default one
	if w.sheets == 0 {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("failed to rename sheet: %w", err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	w.sheets++

	if err := w.writeHeader(name, columns); err != nil {
		return err
	}
	return w.writeRows(name, columns, rows)
}

// Sheets returns the number of sheets written
func (w *Workbook) Sheets() int {
	return w.sheets
}

// Write serializes the workbook to out
func (w *Workbook) Write(out io.Writer) error {
	if w.sheets == 0 {
		return fmt.Errorf("workbook has no sheets")
	}
	return w.file.Write(out)
}

// Close releases the workbook
func (w *Workbook) Close() error {
	return w.file.Close()
}

func (w *Workbook) ensureStyles() error {
	if w.dateStyle != 0 {
		return nil
	}

	if w.options.HeaderStyle != nil {
		style, err := w.file.NewStyle(headerStyle(w.options.HeaderStyle))
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		w.headerStyle = style
	}

	dateFormat := w.options.DateFormat
	style, err := w.file.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}
	w.dateStyle = style

	numberFormat := w.options.CurrencyFormat
	style, err = w.file.NewStyle(&excelize.Style{CustomNumFmt: &numberFormat})
	if err != nil {
		return fmt.Errorf("failed to create number style: %w", err)
	}
	w.numberStyle = style
	return nil
}

func (w *Workbook) writeHeader(sheet string, columns []string) error {
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := w.file.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	if w.headerStyle > 0 && len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		if err := w.file.SetCellStyle(sheet, "A1", last, w.headerStyle); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	if w.options.FreezeHeader {
		err := w.file.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
		if err != nil {
			return fmt.Errorf("failed to freeze header: %w", err)
		}
	}
	return nil
}

func (w *Workbook) writeRows(sheet string, columns []string, rows []map[string]interface{}) error {
	widths := make([]float64, len(columns))
	for i, col := range columns {
		widths[i] = estimateWidth(col)
	}

	for rowIdx, row := range rows {
		for colIdx, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			val := row[col]
			if err := w.setCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
			if width := estimateWidth(val); width > widths[colIdx] {
				widths[colIdx] = width
			}
		}
	}

	if w.options.AutoFilter && len(columns) > 0 && len(rows) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), len(rows)+1)
		if err := w.file.AutoFilter(sheet, "A1:"+last, nil); err != nil {
			return fmt.Errorf("failed to add filter: %w", err)
		}
	}

	if w.options.AutoWidth {
		for i, width := range widths {
			name, _ := excelize.ColumnNumberToName(i + 1)
			if err := w.file.SetColWidth(sheet, name, name, clamp(width, 10, 50)); err != nil {
				return fmt.Errorf("failed to size column: %w", err)
			}
		}
	}
	return nil
}

func (w *Workbook) setCellValue(sheet, cell string, val interface{}) error {
	switch v := val.(type) {
	case nil:
		return w.file.SetCellValue(sheet, cell, "")
	case time.Time:
		if v.IsZero() {
			return w.file.SetCellValue(sheet, cell, "")
		}
		// excel has no zones, store the local wall clock
		local := v.In(w.options.Location)
		wall := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), local.Second(), 0, time.UTC)
		if err := w.file.SetCellValue(sheet, cell, wall); err != nil {
			return err
		}
		return w.file.SetCellStyle(sheet, cell, cell, w.dateStyle)
	case float64, float32:
		if err := w.file.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		return w.file.SetCellStyle(sheet, cell, cell, w.numberStyle)
	default:
		return w.file.SetCellValue(sheet, cell, v)
	}
}

func headerStyle(config *ExcelStyleConfig) *excelize.Style {
	style := &excelize.Style{
		Font: &excelize.Font{
			Bold:  config.FontBold,
			Size:  float64(config.FontSize),
			Color: config.FontColor,
		},
	}
	if config.FillColor != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{config.FillColor}}
	}
	if config.Alignment != "" {
		style.Alignment = &excelize.Alignment{Horizontal: config.Alignment}
	}
	if config.Border {
		style.Border = []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		}
	}
	return style
}

func estimateWidth(val interface{}) float64 {
	if val == nil {
		return 0
	}
	if t, ok := val.(time.Time); ok && !t.IsZero() {
		return 18
	}
	return float64(len(fmt.Sprintf("%v", val))) * 1.2
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
