package invoice

import "time"

// DateLayout is the ISO calendar date format used across the persisted shape.
const DateLayout = "2006-01-02"

// DefaultDueDays is added to the issue date when a draft is minted.
const DefaultDueDays = 14

// LineItem is one billable row of an invoice.
type LineItem struct {
	ID          int     `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
}

// Party identifies one side of the invoice. Empty strings mean absent.
type Party struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Invoice is the full in-memory draft.
type Invoice struct {
	InvoiceNumber string     `json:"invoiceNumber"`
	IssueDate     string     `json:"issueDate"`
	DueDate       string     `json:"dueDate"`
	Business      Party      `json:"business"`
	Client        Party      `json:"client"`
	Items         []LineItem `json:"items"`
	TaxRate       float64    `json:"taxRate"`
	Discount      float64    `json:"discount"`
	Subtotal      float64    `json:"subtotal"`
	Total         float64    `json:"total"`
}

// ItemPatch carries a partial update for a LineItem; nil fields are left alone.
type ItemPatch struct {
	Description *string `json:"description"`
	Quantity    *string `json:"quantity"`
	Price       *string `json:"price"`
}

// PartialParty mirrors Party with optional fields for lenient decoding.
type PartialParty struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// Record is the JSON-lenient persisted form of an Invoice. Scalar fields are
// pointers so a key missing from a stored or imported payload is
// distinguishable from a zero value.
type Record struct {
	InvoiceNumber *string       `json:"invoiceNumber,omitempty"`
	IssueDate     *string       `json:"issueDate,omitempty"`
	DueDate       *string       `json:"dueDate,omitempty"`
	Business      *PartialParty `json:"business,omitempty"`
	Client        *PartialParty `json:"client,omitempty"`
	Items         []LineItem    `json:"items,omitempty"`
	TaxRate       *float64      `json:"taxRate,omitempty"`
	Discount      *float64      `json:"discount,omitempty"`
	Subtotal      *float64      `json:"subtotal,omitempty"`
	Total         *float64      `json:"total,omitempty"`
	SavedAt       string        `json:"savedAt,omitempty"`
}

// Number returns the record's invoice number or "" when absent.
func (r Record) Number() string {
	if r.InvoiceNumber == nil {
		return ""
	}
	return *r.InvoiceNumber
}

// NewRecord snapshots an Invoice into its persisted form. SavedAt is stamped
// by the persistence layer at write time.
func NewRecord(inv Invoice) Record {
	items := make([]LineItem, len(inv.Items))
	copy(items, inv.Items)
	business := PartialParty{Name: &inv.Business.Name, Phone: &inv.Business.Phone, Address: &inv.Business.Address}
	client := PartialParty{Name: &inv.Client.Name, Phone: &inv.Client.Phone, Address: &inv.Client.Address}
	return Record{
		InvoiceNumber: &inv.InvoiceNumber,
		IssueDate:     &inv.IssueDate,
		DueDate:       &inv.DueDate,
		Business:      &business,
		Client:        &client,
		Items:         items,
		TaxRate:       &inv.TaxRate,
		Discount:      &inv.Discount,
		Subtotal:      &inv.Subtotal,
		Total:         &inv.Total,
	}
}

// NewDraft builds a defaulted invoice: the supplied number, today's issue
// date, a due date DefaultDueDays out, zeroed financials and no items.
func NewDraft(number string, now time.Time) Invoice {
	return Invoice{
		InvoiceNumber: number,
		IssueDate:     now.Format(DateLayout),
		DueDate:       now.AddDate(0, 0, DefaultDueDays).Format(DateLayout),
		Items:         []LineItem{},
	}
}
