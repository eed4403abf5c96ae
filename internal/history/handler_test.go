package history_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/billfold/billfold/internal/history"
	"github.com/billfold/billfold/internal/invoice"
)

func newTestServer(t *testing.T) (*httptest.Server, *history.Repository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	repo := history.NewRepository(logger, history.NewFileStore(filepath.Join(t.TempDir(), "invoices.json")), 0)
	handler := history.NewHandler(logger, repo)

	r := chi.NewRouter()
	r.Route("/api/history", handler.MountRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo
}

func saved(number string) invoice.Invoice {
	return invoice.Invoice{
		InvoiceNumber: number,
		IssueDate:     "2026-08-01",
		Business:      invoice.Party{Name: "Acme Ltd"},
		Client:        invoice.Party{Name: "Globex"},
		Items:         []invoice.LineItem{{ID: 1, Description: "work", Quantity: 1, Price: 100, Total: 100}},
		Subtotal:      100,
		Total:         100,
	}
}

func uploadFile(t *testing.T, srv *httptest.Server, contents []byte) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "invoices.json")
	require.NoError(t, err)
	_, err = part.Write(contents)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	res, err := http.Post(srv.URL+"/api/history/import", writer.FormDataContentType(), body)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func TestListAndGet(t *testing.T) {
	srv, repo := newTestServer(t)
	require.True(t, repo.Save(context.Background(), saved("INV-001")))

	res, err := http.Get(srv.URL + "/api/history/")
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	var body struct {
		Invoices []invoice.Record `json:"invoices"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body.Invoices, 1)

	res, err = http.Get(srv.URL + "/api/history/INV-404")
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestDeleteEndpoint(t *testing.T) {
	srv, repo := newTestServer(t)
	ctx := context.Background()
	require.True(t, repo.Save(ctx, saved("INV-001")))

	res, err := http.Post(srv.URL+"/api/history/INV-001/delete", "", nil)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Empty(t, repo.ListAll(ctx))
}

func TestExportDownload(t *testing.T) {
	srv, repo := newTestServer(t)
	require.True(t, repo.Save(context.Background(), saved("INV-001")))

	res, err := http.Get(srv.URL + "/api/history/export")
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))
	require.Contains(t, res.Header.Get("Content-Disposition"), ".json")

	res, err = http.Get(srv.URL + "/api/history/export.csv")
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, "text/csv", res.Header.Get("Content-Type"))
}

func TestImportEndpoint(t *testing.T) {
	srv, repo := newTestServer(t)
	ctx := context.Background()
	require.True(t, repo.Save(ctx, saved("INV-001")))

	payload, err := json.Marshal([]invoice.Record{
		invoice.NewRecord(saved("INV-001")),
		invoice.NewRecord(saved("INV-002")),
	})
	require.NoError(t, err)

	res := uploadFile(t, srv, payload)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var body map[string]int
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, 1, body["imported"])
	require.Len(t, repo.ListAll(ctx), 2)
}

func TestImportFormatError(t *testing.T) {
	srv, repo := newTestServer(t)
	ctx := context.Background()
	require.True(t, repo.Save(ctx, saved("INV-001")))

	res := uploadFile(t, srv, []byte(`{"not":"an array"}`))
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Len(t, repo.ListAll(ctx), 1, "stored invoices unchanged after a bad file")
}

func TestStatsEndpoint(t *testing.T) {
	srv, repo := newTestServer(t)
	require.True(t, repo.Save(context.Background(), saved("INV-001")))

	res, err := http.Get(srv.URL + "/api/history/stats")
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	var stats history.Stats
	require.NoError(t, json.NewDecoder(res.Body).Decode(&stats))
	require.Equal(t, 1, stats.Count)
	require.Greater(t, stats.ByteSize, 0)
}
