package editor

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/billfold/billfold/internal/calc"
	"github.com/billfold/billfold/internal/history"
	"github.com/billfold/billfold/internal/invoice"
	"github.com/billfold/billfold/internal/pdf"
	"github.com/billfold/billfold/internal/shared"
)

// Handler exposes the draft editing surface. Exactly one logical user drives
// the draft; the mutex serializes HTTP dispatch onto it the way the
// single-threaded event loop of a UI would.
type Handler struct {
	mu       sync.Mutex
	logger   *slog.Logger
	editor   *Editor
	repo     *history.Repository
	renderer *pdf.Renderer
	symbol   string
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, ed *Editor, repo *history.Repository, renderer *pdf.Renderer, symbol string) *Handler {
	return &Handler{logger: logger, editor: ed, repo: repo, renderer: renderer, symbol: symbol}
}

// MountRoutes registers the editing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showDraft)
	r.Post("/items", h.addItem)
	r.Post("/items/{id}", h.updateItem)
	r.Post("/items/{id}/delete", h.removeItem)
	r.Post("/business", h.updateBusiness)
	r.Post("/client", h.updateClient)
	r.Post("/tax-rate", h.updateTaxRate)
	r.Post("/discount", h.updateDiscount)
	r.Post("/new", h.newInvoice)
	r.Post("/save", h.saveDraft)
	r.Post("/load/{number}", h.loadInvoice)
	r.Get("/pdf", h.downloadPDF)
}

// draftView is the JSON shape of the current draft plus display totals.
type draftView struct {
	Invoice invoice.Invoice `json:"invoice"`
	Display displayTotals   `json:"display"`
}

type displayTotals struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

func (h *Handler) view() draftView {
	inv := h.editor.Snapshot()
	totals := h.editor.Totals()
	return draftView{
		Invoice: inv,
		Display: displayTotals{
			Subtotal: calc.FormatCurrency(totals.Subtotal, h.symbol),
			Tax:      calc.FormatCurrency(totals.Tax, h.symbol),
			Discount: calc.FormatCurrency(totals.Discount, h.symbol),
			Total:    calc.FormatCurrency(totals.Total, h.symbol),
		},
	}
}

func (h *Handler) respondDraft(w http.ResponseWriter, status int) {
	shared.WriteJSON(w, status, h.view())
}

func (h *Handler) showDraft(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.respondDraft(w, http.StatusOK)
}

// itemPatchFromForm builds a patch whose fields are set only for form keys
// the client actually sent, preserving partial-update semantics.
func itemPatchFromForm(r *http.Request) invoice.ItemPatch {
	var patch invoice.ItemPatch
	if vs, ok := r.PostForm["description"]; ok && len(vs) > 0 {
		patch.Description = &vs[0]
	}
	if vs, ok := r.PostForm["quantity"]; ok && len(vs) > 0 {
		patch.Quantity = &vs[0]
	}
	if vs, ok := r.PostForm["price"]; ok && len(vs) > 0 {
		patch.Price = &vs[0]
	}
	return patch
}

func partyPatchFromForm(r *http.Request) invoice.PartialParty {
	var patch invoice.PartialParty
	if vs, ok := r.PostForm["name"]; ok && len(vs) > 0 {
		patch.Name = &vs[0]
	}
	if vs, ok := r.PostForm["phone"]; ok && len(vs) > 0 {
		patch.Phone = &vs[0]
	}
	if vs, ok := r.PostForm["address"]; ok && len(vs) > 0 {
		patch.Address = &vs[0]
	}
	return patch
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	item := h.editor.AddItem(itemPatchFromForm(r))
	shared.WriteJSON(w, http.StatusCreated, map[string]any{"item": item, "draft": h.view()})
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.editor.UpdateItem(id, itemPatchFromForm(r))
	h.respondDraft(w, http.StatusOK)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.editor.RemoveItem(id)
	h.respondDraft(w, http.StatusOK)
}

func (h *Handler) updateBusiness(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.editor.UpdateBusiness(partyPatchFromForm(r))
	h.respondDraft(w, http.StatusOK)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.editor.UpdateClient(partyPatchFromForm(r))
	h.respondDraft(w, http.StatusOK)
}

func (h *Handler) updateTaxRate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.editor.UpdateTaxRate(r.PostFormValue("value"))
	h.respondDraft(w, http.StatusOK)
}

func (h *Handler) updateDiscount(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.editor.UpdateDiscount(r.PostFormValue("value"))
	h.respondDraft(w, http.StatusOK)
}

// newInvoice resets the draft and seeds it with one blank line item, the way
// a fresh editing session starts.
func (h *Handler) newInvoice(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.editor.Reset(r.Context())
	h.editor.AddItem(invoice.ItemPatch{})
	h.respondDraft(w, http.StatusOK)
}

func (h *Handler) saveDraft(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.editor.ValidateForSave(); err != nil {
		fields, _ := err.(ValidationErrors)
		shared.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "invoice is not ready to save",
			"fields": fields,
		})
		return
	}
	inv := h.editor.Snapshot()
	if !h.repo.Save(r.Context(), inv) {
		shared.WriteError(w, http.StatusInternalServerError, shared.ErrStorageUnavailable)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"invoiceNumber": inv.InvoiceNumber})
}

func (h *Handler) loadInvoice(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	rec, ok := h.repo.Get(r.Context(), number)
	if !ok {
		shared.WriteError(w, http.StatusNotFound, shared.ErrNotFound)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.editor.Load(rec)
	h.respondDraft(w, http.StatusOK)
}

func (h *Handler) downloadPDF(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	inv := h.editor.Snapshot()
	h.mu.Unlock()

	if h.renderer == nil {
		h.logger.Error("pdf renderer not configured")
		shared.WriteError(w, http.StatusServiceUnavailable, shared.ErrRendererUnavailable)
		return
	}
	data, err := h.renderer.Render(inv)
	if err != nil {
		h.logger.Error("render invoice pdf", slog.String("number", inv.InvoiceNumber), slog.Any("error", err))
		shared.WriteError(w, http.StatusServiceUnavailable, shared.ErrRendererUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", inv.InvoiceNumber))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
