package proposals

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"simulacred/simulation-portal/simulation-portal-backend/internal/financing/calculation"
	"simulacred/simulation-portal/simulation-portal-backend/internal/simulations"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/formatters"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/security"
)

// PreviewMonths is the number of installments printed on a proposal
const PreviewMonths = 12

// PDFColor represents an RGB color
type PDFColor struct {
	R int
	G int
	B int
}

var (
	colorPrimary      = PDFColor{R: 37, G: 99, B: 235}
	colorPrimaryLight = PDFColor{R: 59, G: 130, B: 246}
	colorSecondary    = PDFColor{R: 99, G: 102, B: 241}
	colorSuccess      = PDFColor{R: 5, G: 150, B: 105}
	colorText         = PDFColor{R: 31, G: 41, B: 55}
	colorTextLight    = PDFColor{R: 107, G: 114, B: 128}
	colorBackground   = PDFColor{R: 248, G: 250, B: 252}
	colorBorder       = PDFColor{R: 226, G: 232, B: 240}
)

var proposalTerms = []string{
	"- Esta proposta tem validade de 30 dias a partir da data de emissão.",
	"- A aprovação do financiamento está sujeita à análise de crédito e renda.",
	"- Documentação completa deve ser apresentada para formalização do contrato.",
	"- Taxas administrativas e seguros obrigatórios serão informados na formalização.",
	"- O imóvel ficará como garantia real do financiamento (alienação fiduciária).",
	"- Valores sujeitos a alteração conforme política de crédito da instituição.",
}

var signedNextSteps = []string{
	"1. Aguarde contato da nossa equipe de crédito em até 2 dias úteis",
	"2. Prepare a documentação necessária (lista será enviada por email)",
	"3. Agende uma visita para avaliação do imóvel",
	"4. Compareça à agência para assinatura do contrato final",
	"5. Liberação dos recursos conforme cronograma acordado",
}

// GeneratorOptions configures PDF rendering
type GeneratorOptions struct {
	FontFamily string
	Compress   bool
	Location   *time.Location
}

// DefaultGeneratorOptions returns the production settings
func DefaultGeneratorOptions() GeneratorOptions {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.UTC
	}
	return GeneratorOptions{
		FontFamily: "Helvetica",
		Compress:   true,
		Location:   loc,
	}
}

// Generator renders proposal documents
type Generator struct {
	options GeneratorOptions
}

// NewGenerator creates a new proposal generator
func NewGenerator(options GeneratorOptions) *Generator {
	if options.FontFamily == "" {
		options.FontFamily = "Helvetica"
	}
	if options.Location == nil {
		options.Location = time.UTC
	}
	return &Generator{options: options}
}

// document wraps one gofpdf instance with the proposal layout helpers
type document struct {
	pdf  *gofpdf.Fpdf
	tr   func(string) string
	font string
}

func (g *Generator) newDocument() *document {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(g.options.Compress)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	return &document{
		pdf:  pdf,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
		font: g.options.FontFamily,
	}
}

// Render builds the unsigned proposal with a preview of the first installments
func (g *Generator) Render(sim *simulations.Simulation, preview []calculation.Installment, generatedAt time.Time) ([]byte, error) {
	generatedAt = generatedAt.In(g.options.Location)
	d := g.newDocument()

	d.banner(colorPrimary, "PROPOSTA DE FINANCIAMENTO", "IMOBILIÁRIO",
		"Proposta #"+proposalNumber(sim), "Data: "+formatters.FormatDate(generatedAt))

	y := 55.0
	y = d.clientSection(sim, y, colorPrimary)
	y = d.financingSection(sim, y, "DETALHES DO IMÓVEL E FINANCIAMENTO", colorPrimary)
	y = d.paymentSummary(sim, y, "RESUMO DOS PAGAMENTOS", colorPrimary, colorSecondary, colorSuccess)
	d.amortizationPreview(preview, y)

	generated := fmt.Sprintf("Documento gerado automaticamente em %s às %s",
		formatters.FormatDate(generatedAt), formatters.FormatTime(generatedAt))
	disclaimer := "Este documento é uma simulação e não constitui compromisso de crédito."
	d.footer(colorPrimary, generated, disclaimer)

	// terms and signature go on the second page
	d.pdf.AddPage()
	y = 20.0
	y = d.headerSection("TERMOS E CONDIÇÕES", y, colorPrimary)
	d.contentSection(y, 40)
	d.setText(colorText, "", 8)
	for i, term := range proposalTerms {
		d.text(20, y+7+float64(i)*5.5, term)
	}
	y += 45

	y = d.headerSection("ASSINATURA E ACEITE", y, colorPrimary)
	d.contentSection(y, 20)
	d.setText(colorText, "", 10)
	d.text(20, y+8, "Data: ___/___/______")
	d.text(20, y+16, "Assinatura do Cliente:")
	d.pdf.SetDrawColor(colorText.R, colorText.G, colorText.B)
	d.pdf.Line(65, y+16, 170, y+16)

	d.footer(colorPrimary, generated, disclaimer)

	return d.output()
}

// RenderSigned builds the signed proposal with the embedded signature image and its fingerprint
func (g *Generator) RenderSigned(sim *simulations.Simulation, signature *security.SignatureInfo) ([]byte, error) {
	if signature == nil || len(signature.Image) == 0 {
		return nil, fmt.Errorf("%w: missing image", security.ErrInvalidSignature)
	}
	signedAt := signature.SignedAt.In(g.options.Location)
	d := g.newDocument()

	d.banner(colorSuccess, "PROPOSTA ASSINADA", "FINANCIAMENTO IMOBILIÁRIO",
		"Proposta #"+proposalNumber(sim), "Assinada em: "+formatters.FormatDate(signedAt))

	y := 50.0
	d.pdf.SetFillColor(colorSuccess.R, colorSuccess.G, colorSuccess.B)
	d.pdf.Rect(15, y, 60, 10, "F")
	d.setText(PDFColor{R: 255, G: 255, B: 255}, "B", 10)
	d.text(20, y+6.5, "PROPOSTA ACEITA")
	y += 15

	y = d.clientSection(sim, y, colorSuccess)
	y = d.financingSection(sim, y, "DETALHES DO FINANCIAMENTO APROVADO", colorSuccess)
	y = d.paymentSummary(sim, y, "RESUMO DOS PAGAMENTOS APROVADOS", colorSuccess, colorSecondary, colorPrimary)

	y = d.headerSection("ASSINATURA DIGITAL", y, colorSuccess)
	d.contentSection(y, 42)
	d.setText(colorText, "", 10)
	d.text(20, y+7, "Data da Assinatura: "+formatters.FormatDate(signedAt)+" "+formatters.FormatTime(signedAt))
	d.text(20, y+13, "Assinatura Digital do Cliente:")

	imageName := "signature-" + signature.Fingerprint
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	d.pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(signature.Image))
	w, h := fitSignature(signature.Width, signature.Height, 80, 22)
	d.pdf.ImageOptions(imageName, 20, y+16, w, h, false, opts, 0, "")

	d.setText(colorTextLight, "", 7)
	d.text(105, y+20, "Assinatura verificada digitalmente")
	d.text(105, y+25, "SHA-256:")
	for i, line := range splitEvery(signature.Fingerprint, 32) {
		d.text(105, y+29+float64(i)*4, line)
	}
	y += 47

	y = d.headerSection("PRÓXIMOS PASSOS", y, colorPrimary)
	d.contentSection(y, 32)
	d.setText(colorText, "", 8)
	for i, step := range signedNextSteps {
		d.text(20, y+7+float64(i)*5.5, step)
	}

	d.footer(colorSuccess,
		fmt.Sprintf("Proposta assinada digitalmente em %s às %s",
			formatters.FormatDate(signedAt), formatters.FormatTime(signedAt)),
		"Este documento possui validade legal e constitui aceite formal da proposta.")

	return d.output()
}

// =====================================================
// Layout helpers
// =====================================================

func (d *document) setText(c PDFColor, style string, size float64) {
	d.pdf.SetTextColor(c.R, c.G, c.B)
	d.pdf.SetFont(d.font, style, size)
}

func (d *document) text(x, y float64, s string) {
	d.pdf.Text(x, y, d.tr(s))
}

func (d *document) banner(c PDFColor, title, subtitle, number, date string) {
	d.pdf.SetFillColor(c.R, c.G, c.B)
	d.pdf.Rect(0, 0, 210, 38, "F")

	white := PDFColor{R: 255, G: 255, B: 255}
	d.setText(white, "B", 20)
	d.text(15, 20, title)
	d.setText(white, "", 11)
	d.text(15, 28, subtitle)

	d.setText(white, "", 9)
	d.text(150, 20, number)
	d.text(150, 28, date)
}

func (d *document) headerSection(title string, y float64, c PDFColor) float64 {
	d.pdf.SetFillColor(c.R, c.G, c.B)
	d.pdf.Rect(15, y, 180, 8, "F")
	d.setText(PDFColor{R: 255, G: 255, B: 255}, "B", 10)
	d.text(18, y+5.5, title)
	return y + 9
}

func (d *document) contentSection(y, height float64) {
	d.pdf.SetFillColor(colorBackground.R, colorBackground.G, colorBackground.B)
	d.pdf.SetDrawColor(colorBorder.R, colorBorder.G, colorBorder.B)
	d.pdf.Rect(15, y, 180, height, "FD")
}

func (d *document) clientSection(sim *simulations.Simulation, y float64, c PDFColor) float64 {
	y = d.headerSection("DADOS DO CLIENTE", y, c)
	d.contentSection(y, 22)
	d.setText(colorText, "", 10)
	d.text(20, y+6, "Nome: "+sim.ClientName)
	d.text(20, y+12, "CPF: "+valueOr(formatters.FormatCPF(sim.ClientCPF), "-"))
	d.text(20, y+18, "Email: "+sim.ClientEmail)
	d.text(115, y+12, "Telefone: "+valueOr(formatters.FormatPhone(sim.ClientPhone), "-"))
	return y + 26
}

func (d *document) financingSection(sim *simulations.Simulation, y float64, title string, c PDFColor) float64 {
	y = d.headerSection(title, y, c)
	d.contentSection(y, 24)

	d.labelValue(20, 70, y+7, "Valor do Imóvel:", formatters.FormatCurrency(sim.PropertyValue), colorPrimary)
	d.labelValue(20, 70, y+14, "Entrada ("+formatters.FormatPercent(sim.DownPaymentPercentage, 0)+"):",
		formatters.FormatCurrency(sim.DownPaymentAmount), colorSuccess)
	d.labelValue(20, 70, y+21, "Valor Financiado:", formatters.FormatCurrency(sim.LoanAmount), colorSecondary)

	d.labelValue(115, 145, y+7, "Prazo:", strconv.Itoa(sim.LoanTermYears)+" anos", colorText)
	d.labelValue(115, 145, y+14, "Taxa de Juros:", formatters.FormatPercent(sim.InterestRate, 2)+" a.a.", colorText)
	return y + 28
}

func (d *document) labelValue(labelX, valueX, y float64, label, value string, c PDFColor) {
	d.setText(colorText, "", 10)
	d.text(labelX, y, label)
	d.setText(c, "B", 10)
	d.text(valueX, y, value)
}

func (d *document) paymentSummary(sim *simulations.Simulation, y float64, title string, first, second, third PDFColor) float64 {
	y = d.headerSection(title, y, first)
	d.valueBox(20, y+2, 55, "PARCELA MENSAL", formatters.FormatCurrency(sim.MonthlyPayment), first)
	d.valueBox(80, y+2, 55, "TOTAL DE JUROS", formatters.FormatCurrency(sim.TotalInterest), second)
	d.valueBox(140, y+2, 55, "VALOR TOTAL", formatters.FormatCurrency(sim.TotalPayment), third)
	return y + 26
}

func (d *document) valueBox(x, y, width float64, label, value string, c PDFColor) {
	d.pdf.SetFillColor(c.R, c.G, c.B)
	d.pdf.Rect(x, y, width, 20, "F")
	white := PDFColor{R: 255, G: 255, B: 255}
	d.setText(white, "", 7)
	d.text(x+4, y+7, label)
	d.setText(white, "B", 11)
	d.text(x+4, y+15, value)
}

func (d *document) amortizationPreview(preview []calculation.Installment, y float64) float64 {
	y = d.headerSection(fmt.Sprintf("SIMULAÇÃO DE AMORTIZAÇÃO (PRIMEIROS %d MESES)", PreviewMonths), y, colorPrimary)
	d.contentSection(y, 74)

	d.pdf.SetFillColor(colorPrimaryLight.R, colorPrimaryLight.G, colorPrimaryLight.B)
	d.pdf.Rect(18, y+2, 174, 6, "F")
	d.setText(PDFColor{R: 255, G: 255, B: 255}, "B", 8)
	columns := []float64{22, 45, 80, 115, 155}
	for i, label := range []string{"Mês", "Parcela", "Juros", "Amortização", "Saldo Devedor"} {
		d.text(columns[i], y+6, label)
	}

	d.setText(colorText, "", 8)
	for i, inst := range preview {
		if i >= PreviewMonths {
			break
		}
		rowY := y + 13 + float64(i)*5
		d.text(columns[0], rowY, fmt.Sprintf("%02d", inst.Month))
		d.text(columns[1], rowY, formatters.FormatCurrency(inst.Payment))
		d.text(columns[2], rowY, formatters.FormatCurrency(inst.Interest))
		d.text(columns[3], rowY, formatters.FormatCurrency(inst.Principal))
		d.text(columns[4], rowY, formatters.FormatCurrency(inst.Balance))
	}
	return y + 78
}

func (d *document) footer(c PDFColor, first, second string) {
	const footerY = 277.0
	d.pdf.SetFillColor(c.R, c.G, c.B)
	d.pdf.Rect(0, footerY, 210, 20, "F")
	white := PDFColor{R: 255, G: 255, B: 255}
	d.setText(white, "I", 8)
	d.text(15, footerY+7, first)
	d.text(15, footerY+14, second)
}

func (d *document) output() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render proposal: %w", err)
	}
	return buf.Bytes(), nil
}

// =====================================================
// Helper Functions
// =====================================================

// proposalNumber is the short uppercase prefix of the simulation id
func proposalNumber(sim *simulations.Simulation) string {
	id := sim.ID.String()
	if len(id) < 8 {
		return id
	}
	return strings.ToUpper(id[:8])
}

// fitSignature scales the image into the box, keeping the aspect ratio
func fitSignature(width, height int, maxW, maxH float64) (float64, float64) {
	if width <= 0 || height <= 0 {
		return maxW, maxH
	}
	w := maxW
	h := w * float64(height) / float64(width)
	if h > maxH {
		h = maxH
		w = h * float64(width) / float64(height)
	}
	return w, h
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	return append(parts, s)
}
