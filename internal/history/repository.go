package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/billfold/billfold/internal/invoice"
)

// ErrNotArray is raised when an import payload's top-level JSON value is not
// an array. It is the one error this layer raises to callers; every storage
// fault is logged and converted to a boolean or empty result instead, so the
// editing flow never blocks on a broken store.
var ErrNotArray = errors.New("history: import payload must be a JSON array")

// DefaultMaxBytes mirrors the practical capacity ceiling of the original
// storage substrate.
const DefaultMaxBytes = 5 << 20

// Stats reports the size of the stored collection.
type Stats struct {
	Count    int `json:"count"`
	ByteSize int `json:"byteSize"`
}

// Repository is the persistence layer over a BlobStore: one ordered JSON
// array of invoice records, upserted by invoice number.
type Repository struct {
	logger   *slog.Logger
	blob     BlobStore
	maxBytes int
	now      func() time.Time
}

// NewRepository builds a Repository. maxBytes <= 0 selects DefaultMaxBytes.
func NewRepository(logger *slog.Logger, blob BlobStore, maxBytes int) *Repository {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Repository{logger: logger, blob: blob, maxBytes: maxBytes, now: time.Now}
}

// WithClock overrides the savedAt clock, for tests.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

// load deserializes the stored collection. Absent key, unreadable store and
// unparseable payloads all collapse to an empty collection, logged.
func (r *Repository) load(ctx context.Context) []invoice.Record {
	data, err := r.blob.Load(ctx)
	if err != nil {
		r.logger.Error("history: read store", slog.Any("error", err))
		return []invoice.Record{}
	}
	if len(data) == 0 {
		return []invoice.Record{}
	}
	var records []invoice.Record
	if err := json.Unmarshal(data, &records); err != nil {
		r.logger.Error("history: corrupt store, treating as empty", slog.Any("error", err))
		return []invoice.Record{}
	}
	return records
}

// write re-serializes the whole collection, enforcing the capacity ceiling.
func (r *Repository) write(ctx context.Context, records []invoice.Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	if len(data) > r.maxBytes {
		return fmt.Errorf("history: collection is %d bytes, quota is %d", len(data), r.maxBytes)
	}
	return r.blob.Store(ctx, data)
}

// ListAll returns every stored record in insertion order.
func (r *Repository) ListAll(ctx context.Context) []invoice.Record {
	return r.load(ctx)
}

// Numbers returns the stored invoice numbers, satisfying the editor's
// NumberSource.
func (r *Repository) Numbers(ctx context.Context) []string {
	records := r.load(ctx)
	numbers := make([]string, 0, len(records))
	for _, rec := range records {
		if n := rec.Number(); n != "" {
			numbers = append(numbers, n)
		}
	}
	return numbers
}

// Save upserts the snapshot by invoice number, stamping savedAt. Re-saving an
// existing number replaces it in place; saving is idempotent per number.
// Returns false on any serialization or storage failure.
func (r *Repository) Save(ctx context.Context, inv invoice.Invoice) bool {
	records := r.load(ctx)
	rec := invoice.NewRecord(inv)
	rec.SavedAt = r.now().UTC().Format(time.RFC3339)

	replaced := false
	for i := range records {
		if records[i].Number() == inv.InvoiceNumber {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}
	if err := r.write(ctx, records); err != nil {
		r.logger.Error("history: save invoice", slog.String("number", inv.InvoiceNumber), slog.Any("error", err))
		return false
	}
	return true
}

// Get returns the record with the exact invoice number, if stored.
func (r *Repository) Get(ctx context.Context, number string) (invoice.Record, bool) {
	for _, rec := range r.load(ctx) {
		if rec.Number() == number {
			return rec, true
		}
	}
	return invoice.Record{}, false
}

// Delete removes the record with the given number. Deleting an absent number
// succeeds and leaves the collection unchanged.
func (r *Repository) Delete(ctx context.Context, number string) bool {
	records := r.load(ctx)
	kept := records[:0]
	for _, rec := range records {
		if rec.Number() != number {
			kept = append(kept, rec)
		}
	}
	if err := r.write(ctx, kept); err != nil {
		r.logger.Error("history: delete invoice", slog.String("number", number), slog.Any("error", err))
		return false
	}
	return true
}

// ExportAll serializes the collection to indented JSON and returns it with a
// date-stamped download filename.
func (r *Repository) ExportAll(ctx context.Context) ([]byte, string) {
	records := r.load(ctx)
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		r.logger.Error("history: export", slog.Any("error", err))
		return nil, ""
	}
	name := fmt.Sprintf("invoices-%s.json", r.now().Format(invoice.DateLayout))
	return data, name
}

// Import merges a JSON array of records into the collection. Entries whose
// number already exists locally are skipped; existing data wins on conflict.
// The returned error is non-nil only for the format check — a payload whose
// top-level value is not an array.
func (r *Repository) Import(ctx context.Context, data []byte) (int, error) {
	var incoming []invoice.Record
	if err := json.Unmarshal(data, &incoming); err != nil {
		return 0, ErrNotArray
	}

	records := r.load(ctx)
	existing := make(map[string]bool, len(records))
	for _, rec := range records {
		existing[rec.Number()] = true
	}

	added := 0
	for _, rec := range incoming {
		if existing[rec.Number()] {
			continue
		}
		existing[rec.Number()] = true
		records = append(records, rec)
		added++
	}
	if added > 0 {
		if err := r.write(ctx, records); err != nil {
			r.logger.Error("history: import", slog.Any("error", err))
			return 0, nil
		}
	}
	return added, nil
}

// CollectionStats reports the stored count and serialized byte size.
func (r *Repository) CollectionStats(ctx context.Context) Stats {
	records := r.load(ctx)
	data, err := json.Marshal(records)
	if err != nil {
		r.logger.Error("history: stats", slog.Any("error", err))
		return Stats{Count: len(records)}
	}
	return Stats{Count: len(records), ByteSize: len(data)}
}
