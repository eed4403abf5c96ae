// Package editor owns the single invoice draft being worked on. The draft is
// an explicit, single-owner state object; every mutating operation commits
// atomically, so callers can never observe a draft whose stored totals are
// stale relative to its items, tax rate or discount.
package editor

import (
	"context"
	"time"

	"github.com/billfold/billfold/internal/calc"
	"github.com/billfold/billfold/internal/invoice"
)

// NumberSource supplies the invoice numbers currently persisted, used to mint
// the next draft number. Implemented by the history repository.
type NumberSource interface {
	Numbers(ctx context.Context) []string
}

// Editor holds the in-progress invoice draft and its item-ID counter.
type Editor struct {
	numbers    NumberSource
	now        func() time.Time
	inv        invoice.Invoice
	nextItemID int
	batching   bool
}

// New builds an Editor seeded with a fresh draft: next number from the
// source, today's dates and one blank line item.
func New(ctx context.Context, numbers NumberSource) *Editor {
	e := &Editor{numbers: numbers, now: time.Now}
	e.Reset(ctx)
	e.AddItem(invoice.ItemPatch{})
	return e
}

// WithClock overrides the editor's clock, for tests.
func (e *Editor) WithClock(now func() time.Time) *Editor {
	e.now = now
	return e
}

// Snapshot returns a deep copy of the current draft.
func (e *Editor) Snapshot() invoice.Invoice {
	inv := e.inv
	inv.Items = make([]invoice.LineItem, len(e.inv.Items))
	copy(inv.Items, e.inv.Items)
	return inv
}

// Totals returns the current computed totals without mutating the draft.
func (e *Editor) Totals() calc.Totals {
	return calc.GrandTotal(e.inv.Subtotal, e.inv.TaxRate, e.inv.Discount)
}

// commit recomputes all line totals and writes the fresh subtotal and total
// back onto the draft. Suppressed inside Batch so grouped edits recompute
// once.
func (e *Editor) commit() {
	if e.batching {
		return
	}
	totals := calc.RecalculateAll(&e.inv)
	e.inv.Subtotal = totals.Subtotal
	e.inv.Total = totals.Total
}

// Batch applies several edits with a single recomputation at the end.
func (e *Editor) Batch(fn func(*Editor)) {
	e.batching = true
	fn(e)
	e.batching = false
	e.commit()
}

// AddItem appends a line item with the next sequential ID. Quantity defaults
// to 1 and price to 0 when absent or unparseable.
func (e *Editor) AddItem(patch invoice.ItemPatch) invoice.LineItem {
	item := invoice.LineItem{ID: e.nextItemID, Quantity: 1}
	e.nextItemID++
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Quantity != nil {
		item.Quantity = calc.NumberOr(*patch.Quantity, 1)
	}
	if patch.Price != nil {
		item.Price = calc.Number(*patch.Price)
	}
	item.Total = calc.ItemTotal(item.Quantity, item.Price)
	e.inv.Items = append(e.inv.Items, item)
	e.commit()
	return item
}

// UpdateItem applies the present fields of patch to the item with the given
// ID. Unknown IDs are a no-op.
func (e *Editor) UpdateItem(id int, patch invoice.ItemPatch) {
	for i := range e.inv.Items {
		if e.inv.Items[i].ID != id {
			continue
		}
		if patch.Description != nil {
			e.inv.Items[i].Description = *patch.Description
		}
		if patch.Quantity != nil {
			e.inv.Items[i].Quantity = calc.Number(*patch.Quantity)
		}
		if patch.Price != nil {
			e.inv.Items[i].Price = calc.Number(*patch.Price)
		}
		e.inv.Items[i].Total = calc.ItemTotal(e.inv.Items[i].Quantity, e.inv.Items[i].Price)
		e.commit()
		return
	}
}

// RemoveItem deletes the item with the given ID; absent IDs are a no-op.
func (e *Editor) RemoveItem(id int) {
	for i := range e.inv.Items {
		if e.inv.Items[i].ID == id {
			e.inv.Items = append(e.inv.Items[:i], e.inv.Items[i+1:]...)
			e.commit()
			return
		}
	}
}

// UpdateBusiness shallow-merges the patch onto the business party.
func (e *Editor) UpdateBusiness(patch invoice.PartialParty) {
	mergeParty(&e.inv.Business, patch)
	e.commit()
}

// UpdateClient shallow-merges the patch onto the client party.
func (e *Editor) UpdateClient(patch invoice.PartialParty) {
	mergeParty(&e.inv.Client, patch)
	e.commit()
}

func mergeParty(dst *invoice.Party, patch invoice.PartialParty) {
	if patch.Name != nil {
		dst.Name = *patch.Name
	}
	if patch.Phone != nil {
		dst.Phone = *patch.Phone
	}
	if patch.Address != nil {
		dst.Address = *patch.Address
	}
}

// UpdateTaxRate replaces the tax rate, coercing with zero fallback.
func (e *Editor) UpdateTaxRate(value string) {
	e.inv.TaxRate = calc.Number(value)
	e.commit()
}

// UpdateDiscount replaces the discount amount, coercing with zero fallback.
func (e *Editor) UpdateDiscount(value string) {
	e.inv.Discount = calc.Number(value)
	e.commit()
}

// Reset replaces the draft wholesale with a freshly defaulted invoice. The
// number is minted from the persisted numbers; the item counter restarts at 1.
func (e *Editor) Reset(ctx context.Context) {
	var existing []string
	if e.numbers != nil {
		existing = e.numbers.Numbers(ctx)
	}
	e.inv = invoice.NewDraft(invoice.NextNumber(existing), e.now())
	e.nextItemID = 1
	e.commit()
}

// Load replaces the draft with a persisted record. Fields absent from the
// record keep their current draft value, except items, which default to an
// empty sequence. The item-ID counter is restored to max existing ID + 1 so
// later additions cannot collide.
func (e *Editor) Load(rec invoice.Record) {
	if rec.InvoiceNumber != nil {
		e.inv.InvoiceNumber = *rec.InvoiceNumber
	}
	if rec.IssueDate != nil {
		e.inv.IssueDate = *rec.IssueDate
	}
	if rec.DueDate != nil {
		e.inv.DueDate = *rec.DueDate
	}
	if rec.Business != nil {
		mergeParty(&e.inv.Business, *rec.Business)
	}
	if rec.Client != nil {
		mergeParty(&e.inv.Client, *rec.Client)
	}
	if rec.TaxRate != nil {
		e.inv.TaxRate = *rec.TaxRate
	}
	if rec.Discount != nil {
		e.inv.Discount = *rec.Discount
	}
	e.inv.Items = make([]invoice.LineItem, len(rec.Items))
	copy(e.inv.Items, rec.Items)

	maxID := 0
	for _, item := range e.inv.Items {
		if item.ID > maxID {
			maxID = item.ID
		}
	}
	e.nextItemID = maxID + 1
	e.commit()
}
