package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sjsage522/dealscout/internal/acquisition"
	"sjsage522/dealscout/internal/extractor"
	"sjsage522/dealscout/internal/listing"
	"sjsage522/dealscout/internal/page"
	"sjsage522/dealscout/services/coordinator"
	"sjsage522/dealscout/services/storage"
	"sjsage522/dealscout/services/transport"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type noOpener struct{}

func (noOpener) Open(context.Context, string) (page.Source, error) {
	return nil, errors.New("network disabled in tests")
}

func setupServer(t *testing.T) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := storage.NewService(storage.NewMemoryRepository())
	store.Start(ctx)
	router := transport.NewRouter()
	coordinator.New(store,
		coordinator.WithInspector(acquisition.NewInspector(extractor.NewDefaultRegistry(), noOpener{})),
	).Register(router)

	return NewServer(transport.NewLocalBus(router), false).Handler()
}

func performJSONRequest(h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) transport.Response {
	t.Helper()
	var resp transport.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestListingLifecycle(t *testing.T) {
	h := setupServer(t)

	rec := listing.Record{Site: listing.SiteArabam, PageKind: listing.PageDetail, ListingID: "123"}
	rec.Set(listing.FieldPrice, "500.000 TL")
	w := performJSONRequest(h, http.MethodPost, "/api/listings", rec)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode(t, w).Int("total"))

	rows := []listing.Record{
		{Site: listing.SiteArabam, ListingID: "123", Title: "Renault Clio"},
		{Site: listing.SiteSahibinden, ListingID: "9", Title: "Fiat Egea"},
	}
	w = performJSONRequest(h, http.MethodPost, "/api/listings/batch", rows)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, 1, resp.Int("inserted"))
	assert.Equal(t, 1, resp.Int("updated"))

	w = performJSONRequest(h, http.MethodGet, "/api/listings/arabam/123", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got listing.Record
	require.NoError(t, decode(t, w).Decode("listing", &got))
	assert.Equal(t, "Renault Clio", got.Title)
	assert.Equal(t, "500.000 TL", got.Get(listing.FieldPrice))

	w = performJSONRequest(h, http.MethodGet, "/api/listings/all/9", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performJSONRequest(h, http.MethodGet, "/api/listings/arabam/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performJSONRequest(h, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats storage.Stats
	require.NoError(t, decode(t, w).Decode("stats", &stats))
	assert.Equal(t, 2, stats.Total)

	w = performJSONRequest(h, http.MethodDelete, "/api/listings/arabam/123", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode(t, w).Int("remaining"))

	w = performJSONRequest(h, http.MethodDelete, "/api/listings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = performJSONRequest(h, http.MethodGet, "/api/listings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []listing.Record
	require.NoError(t, decode(t, w).Decode("listings", &all))
	assert.Empty(t, all)
}

func TestPostMessage(t *testing.T) {
	h := setupServer(t)

	w := performJSONRequest(h, http.MethodPost, "/api/messages", transport.Message{Type: transport.TypeGetStats})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success())

	w = performJSONRequest(h, http.MethodPost, "/api/messages", transport.Message{Type: "PING"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = performJSONRequest(h, http.MethodPost, "/api/messages", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtract(t *testing.T) {
	h := setupServer(t)

	w := performJSONRequest(h, http.MethodPost, "/api/extract", map[string]string{
		"url":  "https://www.hepsiburada.com/kis-lastigi-p-HBC00001",
		"html": `<html><body><h1>Kış Lastiği</h1><div data-testid="product-price">1.200 TL</div></body></html>`,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rec listing.Record
	require.NoError(t, decode(t, w).Decode("data", &rec))
	assert.Equal(t, "HBC00001", rec.ListingID)

	w = performJSONRequest(h, http.MethodPost, "/api/extract", map[string]string{"url": "https://example.com/x"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Unsupported site", decode(t, w).Error())

	w = performJSONRequest(h, http.MethodPost, "/api/extract", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeWithoutAnalyzer(t *testing.T) {
	h := setupServer(t)
	w := performJSONRequest(h, http.MethodPost, "/api/analyze", map[string]string{"listingNo": "1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHealth(t *testing.T) {
	h := setupServer(t)
	w := performJSONRequest(h, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

type failingRequester struct{}

func (failingRequester) Request(context.Context, transport.Message) (transport.Response, error) {
	return nil, errors.New("nats: timeout")
}

func TestTransportFailure(t *testing.T) {
	h := NewServer(failingRequester{}, false).Handler()
	w := performJSONRequest(h, http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
