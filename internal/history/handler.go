package history

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/billfold/billfold/internal/shared"
)

// maxImportBytes bounds an uploaded history file. Slightly above the storage
// quota so an export from a full store can still round-trip.
const maxImportBytes = 8 << 20

// Handler exposes the stored-invoice surface: listing, deletion, export,
// import and stats.
type Handler struct {
	logger *slog.Logger
	repo   *Repository
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, repo *Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers the history routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Get("/export", h.exportJSON)
	r.Get("/export.csv", h.exportCSV)
	r.Post("/import", h.importFile)
	r.Get("/{number}", h.get)
	r.Post("/{number}/delete", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	records := h.repo.ListAll(r.Context())
	shared.WriteJSON(w, http.StatusOK, map[string]any{"invoices": records})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	rec, ok := h.repo.Get(r.Context(), number)
	if !ok {
		shared.WriteError(w, http.StatusNotFound, shared.ErrNotFound)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if !h.repo.Delete(r.Context(), number) {
		shared.WriteError(w, http.StatusInternalServerError, shared.ErrStorageUnavailable)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"deleted": number})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, h.repo.CollectionStats(r.Context()))
}

func (h *Handler) exportJSON(w http.ResponseWriter, r *http.Request) {
	data, name := h.repo.ExportAll(r.Context())
	if data == nil {
		shared.WriteError(w, http.StatusInternalServerError, shared.ErrStorageUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	records := h.repo.ListAll(r.Context())
	buf := &bytes.Buffer{}
	if err := WriteCSV(buf, records); err != nil {
		h.logger.Error("history: export csv", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=invoices.csv")
	_, _ = w.Write(buf.Bytes())
}

// importFile merges an uploaded JSON export. The repository is untouched
// until the file's contents have been read in full, so a failed upload never
// leaves a partial import behind.
func (h *Handler) importFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "no file supplied"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
	if err != nil {
		h.logger.Error("history: read import upload", slog.Any("error", err))
		shared.WriteError(w, http.StatusInternalServerError, err)
		return
	}

	added, err := h.repo.Import(r.Context(), data)
	if errors.Is(err, ErrNotArray) {
		shared.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid file: expected a JSON array of invoices."})
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"imported": added})
}
