package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/billfold/billfold/internal/invoice"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func newFileRepo(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoices.json")
	return NewRepository(discardLogger(), NewFileStore(path), 0)
}

func newRedisRepo(t *testing.T) *Repository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRepository(discardLogger(), NewRedisStore(client, ""), 0)
}

func sampleInvoice(number string) invoice.Invoice {
	return invoice.Invoice{
		InvoiceNumber: number,
		IssueDate:     "2026-08-01",
		DueDate:       "2026-08-15",
		Business:      invoice.Party{Name: "Acme Ltd", Phone: "0800-1234", Address: "12 Marina Rd"},
		Client:        invoice.Party{Name: "Globex"},
		Items: []invoice.LineItem{
			{ID: 1, Description: "design", Quantity: 2, Price: 50, Total: 100},
		},
		TaxRate:  10,
		Subtotal: 100,
		Total:    110,
	}
}

// Both backends satisfy the same contract; run the suite against each.
func withRepos(t *testing.T, fn func(t *testing.T, repo *Repository)) {
	t.Run("file", func(t *testing.T) { fn(t, newFileRepo(t)) })
	t.Run("redis", func(t *testing.T) { fn(t, newRedisRepo(t)) })
}

func TestSaveRoundTrip(t *testing.T) {
	withRepos(t, func(t *testing.T, repo *Repository) {
		ctx := context.Background()
		repo.WithClock(func() time.Time { return time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC) })

		inv := sampleInvoice("INV-001")
		require.True(t, repo.Save(ctx, inv))

		rec, ok := repo.Get(ctx, "INV-001")
		require.True(t, ok)
		require.Equal(t, "INV-001", rec.Number())
		require.Equal(t, "2026-08-28T10:00:00Z", rec.SavedAt)
		require.Equal(t, inv.Items, rec.Items)
		require.Equal(t, inv.Business.Name, *rec.Business.Name)
		require.Equal(t, inv.Total, *rec.Total)
	})
}

func TestSaveIsUpsertByNumber(t *testing.T) {
	withRepos(t, func(t *testing.T, repo *Repository) {
		ctx := context.Background()
		require.True(t, repo.Save(ctx, sampleInvoice("INV-001")))
		require.True(t, repo.Save(ctx, sampleInvoice("INV-002")))

		updated := sampleInvoice("INV-001")
		updated.Total = 999
		require.True(t, repo.Save(ctx, updated))

		records := repo.ListAll(ctx)
		require.Len(t, records, 2, "re-saving an existing number overwrites, never duplicates")
		rec, ok := repo.Get(ctx, "INV-001")
		require.True(t, ok)
		require.Equal(t, 999.0, *rec.Total)
	})
}

func TestGetAbsent(t *testing.T) {
	withRepos(t, func(t *testing.T, repo *Repository) {
		_, ok := repo.Get(context.Background(), "INV-404")
		require.False(t, ok)
	})
}

func TestDeleteIdempotence(t *testing.T) {
	withRepos(t, func(t *testing.T, repo *Repository) {
		ctx := context.Background()
		require.True(t, repo.Save(ctx, sampleInvoice("INV-001")))
		require.True(t, repo.Save(ctx, sampleInvoice("INV-002")))

		require.True(t, repo.Delete(ctx, "INV-404"), "deleting an absent number succeeds")
		require.Len(t, repo.ListAll(ctx), 2)

		require.True(t, repo.Delete(ctx, "INV-001"))
		require.Len(t, repo.ListAll(ctx), 1)
		_, ok := repo.Get(ctx, "INV-001")
		require.False(t, ok)
	})
}

func TestNumbers(t *testing.T) {
	withRepos(t, func(t *testing.T, repo *Repository) {
		ctx := context.Background()
		require.True(t, repo.Save(ctx, sampleInvoice("INV-001")))
		require.True(t, repo.Save(ctx, sampleInvoice("INV-007")))
		require.Equal(t, []string{"INV-001", "INV-007"}, repo.Numbers(ctx))
	})
}

func TestImportMergeExistingWins(t *testing.T) {
	withRepos(t, func(t *testing.T, repo *Repository) {
		ctx := context.Background()
		local := sampleInvoice("INV-001")
		local.Total = 110
		require.True(t, repo.Save(ctx, local))

		incomingConflict := invoice.NewRecord(sampleInvoice("INV-001"))
		conflictTotal := 555.0
		incomingConflict.Total = &conflictTotal
		incomingNew := invoice.NewRecord(sampleInvoice("INV-009"))
		payload, err := json.Marshal([]invoice.Record{incomingConflict, incomingNew})
		require.NoError(t, err)

		added, err := repo.Import(ctx, payload)
		require.NoError(t, err)
		require.Equal(t, 1, added, "conflicting number skipped, new number appended")

		rec, ok := repo.Get(ctx, "INV-001")
		require.True(t, ok)
		require.Equal(t, 110.0, *rec.Total, "existing data wins on conflict")
		_, ok = repo.Get(ctx, "INV-009")
		require.True(t, ok)
	})
}

func TestImportRejectsNonArray(t *testing.T) {
	withRepos(t, func(t *testing.T, repo *Repository) {
		ctx := context.Background()
		require.True(t, repo.Save(ctx, sampleInvoice("INV-001")))

		_, err := repo.Import(ctx, []byte(`{"not":"an array"}`))
		require.ErrorIs(t, err, ErrNotArray)
		require.Len(t, repo.ListAll(ctx), 1, "failed import leaves stored invoices unchanged")

		_, err = repo.Import(ctx, []byte(`not json at all`))
		require.ErrorIs(t, err, ErrNotArray)
	})
}

func TestExportAll(t *testing.T) {
	repo := newFileRepo(t)
	ctx := context.Background()
	repo.WithClock(func() time.Time { return time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC) })
	require.True(t, repo.Save(ctx, sampleInvoice("INV-001")))

	data, name := repo.ExportAll(ctx)
	require.Equal(t, "invoices-2026-08-28.json", name)

	var records []invoice.Record
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	require.Equal(t, "INV-001", records[0].Number())
}

func TestCollectionStats(t *testing.T) {
	withRepos(t, func(t *testing.T, repo *Repository) {
		ctx := context.Background()
		stats := repo.CollectionStats(ctx)
		require.Zero(t, stats.Count)

		require.True(t, repo.Save(ctx, sampleInvoice("INV-001")))
		require.True(t, repo.Save(ctx, sampleInvoice("INV-002")))
		stats = repo.CollectionStats(ctx)
		require.Equal(t, 2, stats.Count)
		require.Greater(t, stats.ByteSize, 2)
	})
}

func TestQuotaExceededFailsSoftly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices.json")
	repo := NewRepository(discardLogger(), NewFileStore(path), 64)

	ok := repo.Save(context.Background(), sampleInvoice("INV-001"))
	require.False(t, ok, "write past the quota reports failure instead of raising")
	require.Empty(t, repo.ListAll(context.Background()))
}

func TestCorruptStoreReadsAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{ not json"), 0o600))
	repo := NewRepository(discardLogger(), NewFileStore(path), 0)

	require.Empty(t, repo.ListAll(context.Background()), "parse failure is swallowed, not raised")
	require.True(t, repo.Save(context.Background(), sampleInvoice("INV-001")), "a corrupt store can be written over")
}
