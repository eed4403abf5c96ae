// Package pdf renders a finished invoice document in-process. The caller
// treats any render failure as a user-visible, non-fatal condition; nothing
// here panics and no partial output is ever returned.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/billfold/billfold/internal/calc"
	"github.com/billfold/billfold/internal/invoice"
)

const (
	pageBreakY  = 260 // mm; start a new page before drawing past this line
	tableLeft   = 10
	colDesc     = 95
	colQty      = 20
	colPrice    = 35
	colTotal    = 30
	rowHeight   = 8
	summaryLeft = 120
)

// Renderer draws invoices as paginated A4 documents.
type Renderer struct {
	symbol string
}

// NewRenderer builds a Renderer using the given currency glyph.
func NewRenderer(symbol string) *Renderer {
	if symbol == "" {
		symbol = calc.DefaultCurrencySymbol
	}
	return &Renderer{symbol: symbol}
}

// Render produces the full PDF document for one invoice.
func (r *Renderer) Render(inv invoice.Invoice) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTitle("Invoice "+inv.InvoiceNumber, true)
	doc.AddPage()

	r.drawHeader(doc, tr, inv)
	r.drawParties(doc, tr, inv)
	r.drawItems(doc, tr, inv)
	r.drawSummary(doc, tr, inv)
	r.drawFooter(doc, tr)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) money(v float64) string {
	return calc.FormatCurrency(v, r.symbol)
}

func (r *Renderer) drawHeader(doc *gofpdf.Fpdf, tr func(string) string, inv invoice.Invoice) {
	doc.SetFillColor(24, 49, 83)
	doc.Rect(0, 0, 210, 28, "F")
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 22)
	doc.SetXY(tableLeft, 8)
	doc.CellFormat(100, 12, "INVOICE", "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 12)
	doc.CellFormat(90, 12, tr(inv.InvoiceNumber), "", 1, "R", false, 0, "")
	doc.SetTextColor(0, 0, 0)
	doc.SetY(36)
}

func (r *Renderer) drawParties(doc *gofpdf.Fpdf, tr func(string) string, inv invoice.Invoice) {
	top := doc.GetY()
	r.drawParty(doc, tr, tableLeft, top, "From", inv.Business)
	r.drawParty(doc, tr, 110, top, "Bill To", inv.Client)
	doc.SetY(top + 30)

	doc.SetFont("Helvetica", "", 10)
	doc.SetX(tableLeft)
	doc.CellFormat(95, 6, tr("Issue date: "+inv.IssueDate), "", 0, "L", false, 0, "")
	if inv.DueDate != "" {
		doc.CellFormat(95, 6, tr("Due date: "+inv.DueDate), "", 0, "R", false, 0, "")
	}
	doc.Ln(10)
}

func (r *Renderer) drawParty(doc *gofpdf.Fpdf, tr func(string) string, x, y float64, label string, p invoice.Party) {
	doc.SetXY(x, y)
	doc.SetFont("Helvetica", "B", 11)
	doc.SetTextColor(100, 100, 100)
	doc.CellFormat(90, 6, label, "", 2, "L", false, 0, "")
	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(90, 6, tr(p.Name), "", 2, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	if p.Phone != "" {
		doc.CellFormat(90, 5, tr(p.Phone), "", 2, "L", false, 0, "")
	}
	if p.Address != "" {
		doc.MultiCell(90, 5, tr(p.Address), "", "L", false)
	}
}

func (r *Renderer) drawItemsHeader(doc *gofpdf.Fpdf) {
	doc.SetX(tableLeft)
	doc.SetFont("Helvetica", "B", 10)
	doc.SetFillColor(240, 240, 240)
	doc.CellFormat(colDesc, rowHeight, "Description", "1", 0, "L", true, 0, "")
	doc.CellFormat(colQty, rowHeight, "Qty", "1", 0, "R", true, 0, "")
	doc.CellFormat(colPrice, rowHeight, "Unit Price", "1", 0, "R", true, 0, "")
	doc.CellFormat(colTotal, rowHeight, "Total", "1", 1, "R", true, 0, "")
	doc.SetFont("Helvetica", "", 10)
}

func (r *Renderer) drawItems(doc *gofpdf.Fpdf, tr func(string) string, inv invoice.Invoice) {
	r.drawItemsHeader(doc)
	for _, item := range inv.Items {
		if doc.GetY() > pageBreakY {
			doc.AddPage()
			r.drawItemsHeader(doc)
		}
		doc.SetX(tableLeft)
		doc.CellFormat(colDesc, rowHeight, tr(item.Description), "1", 0, "L", false, 0, "")
		doc.CellFormat(colQty, rowHeight, trimQuantity(item.Quantity), "1", 0, "R", false, 0, "")
		doc.CellFormat(colPrice, rowHeight, tr(r.money(item.Price)), "1", 0, "R", false, 0, "")
		doc.CellFormat(colTotal, rowHeight, tr(r.money(item.Total)), "1", 1, "R", false, 0, "")
	}
	doc.Ln(4)
}

func (r *Renderer) drawSummary(doc *gofpdf.Fpdf, tr func(string) string, inv invoice.Invoice) {
	if doc.GetY() > pageBreakY-30 {
		doc.AddPage()
	}
	totals := calc.GrandTotal(inv.Subtotal, inv.TaxRate, inv.Discount)

	r.summaryRow(doc, tr, "Subtotal", r.money(totals.Subtotal), false)
	if inv.TaxRate > 0 {
		r.summaryRow(doc, tr, fmt.Sprintf("Tax (%.4g%%)", inv.TaxRate), r.money(totals.Tax), false)
	}
	if inv.Discount > 0 {
		r.summaryRow(doc, tr, "Discount", "-"+r.money(totals.Discount), false)
	}
	r.summaryRow(doc, tr, "Total", r.money(totals.Total), true)
}

func (r *Renderer) summaryRow(doc *gofpdf.Fpdf, tr func(string) string, label, value string, highlight bool) {
	doc.SetX(summaryLeft)
	if highlight {
		doc.SetFont("Helvetica", "B", 12)
		doc.SetFillColor(24, 49, 83)
		doc.SetTextColor(255, 255, 255)
		doc.CellFormat(40, rowHeight, tr(label), "", 0, "L", true, 0, "")
		doc.CellFormat(40, rowHeight, tr(value), "", 1, "R", true, 0, "")
		doc.SetTextColor(0, 0, 0)
		return
	}
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(40, rowHeight, tr(label), "", 0, "L", false, 0, "")
	doc.CellFormat(40, rowHeight, tr(value), "", 1, "R", false, 0, "")
}

func (r *Renderer) drawFooter(doc *gofpdf.Fpdf, tr func(string) string) {
	doc.SetY(-25)
	doc.SetFont("Helvetica", "I", 9)
	doc.SetTextColor(120, 120, 120)
	doc.CellFormat(190, 6, tr("Thank you for your business."), "", 0, "C", false, 0, "")
	doc.SetTextColor(0, 0, 0)
}

func trimQuantity(q float64) string {
	return fmt.Sprintf("%.4g", q)
}
