package editor_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/billfold/billfold/internal/editor"
	"github.com/billfold/billfold/internal/history"
	"github.com/billfold/billfold/internal/invoice"
	"github.com/billfold/billfold/internal/pdf"
)

func newTestServer(t *testing.T) (*httptest.Server, *history.Repository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	repo := history.NewRepository(logger, history.NewFileStore(filepath.Join(t.TempDir(), "invoices.json")), 0)
	draft := editor.New(context.Background(), repo)
	handler := editor.NewHandler(logger, draft, repo, pdf.NewRenderer(""), "")

	r := chi.NewRouter()
	r.Route("/api/invoice", handler.MountRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo
}

func postForm(t *testing.T, srv *httptest.Server, path string, form url.Values) *http.Response {
	t.Helper()
	res, err := http.Post(srv.URL+path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func decodeDraft(t *testing.T, res *http.Response) invoice.Invoice {
	t.Helper()
	var body struct {
		Invoice invoice.Invoice `json:"invoice"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body.Invoice
}

func TestEditFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	res := postForm(t, srv, "/api/invoice/items", url.Values{
		"description": {"consulting"},
		"quantity":    {"3"},
		"price":       {"200"},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res = postForm(t, srv, "/api/invoice/tax-rate", url.Values{"value": {"10"}})
	require.Equal(t, http.StatusOK, res.StatusCode)
	inv := decodeDraft(t, res)
	require.Equal(t, 600.0, inv.Subtotal)
	require.Equal(t, 660.0, inv.Total)
}

func TestSaveRequiresValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	res := postForm(t, srv, "/api/invoice/save", nil)
	require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Contains(t, body.Fields, "BusinessName")
	require.Contains(t, body.Fields, "ClientName")
}

func TestSaveAndLoad(t *testing.T) {
	srv, repo := newTestServer(t)

	postForm(t, srv, "/api/invoice/business", url.Values{"name": {"Acme Ltd"}})
	postForm(t, srv, "/api/invoice/client", url.Values{"name": {"Globex"}})
	postForm(t, srv, "/api/invoice/items", url.Values{"description": {"work"}, "price": {"100"}})

	res := postForm(t, srv, "/api/invoice/save", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	_, ok := repo.Get(context.Background(), "INV-001")
	require.True(t, ok)

	// A new draft minted after the save picks the next number.
	res = postForm(t, srv, "/api/invoice/new", nil)
	inv := decodeDraft(t, res)
	require.Equal(t, "INV-002", inv.InvoiceNumber)

	// Loading the saved invoice replaces the draft wholesale.
	res = postForm(t, srv, "/api/invoice/load/INV-001", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	inv = decodeDraft(t, res)
	require.Equal(t, "INV-001", inv.InvoiceNumber)
	require.Equal(t, "Acme Ltd", inv.Business.Name)

	res = postForm(t, srv, "/api/invoice/load/INV-404", nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestDownloadPDF(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := http.Get(srv.URL + "/api/invoice/pdf")
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/pdf", res.Header.Get("Content-Type"))
	require.Contains(t, res.Header.Get("Content-Disposition"), ".pdf")
}
