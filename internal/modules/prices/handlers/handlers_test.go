package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/modules/prices"
)

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate() { c.calls++ }

func setupRouter(t *testing.T, inv Invalidator) chi.Router {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.MigrateConn(db, database.NameHistory))
	t.Cleanup(func() { db.Close() })

	logger := zerolog.New(nil).Level(zerolog.Disabled)
	handler := NewHandler(prices.NewRepository(db, logger), inv, logger)

	r := chi.NewRouter()
	r.Route("/api", handler.RegisterRoutes)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPriceBarsFlow(t *testing.T) {
	inv := &countingInvalidator{}
	r := setupRouter(t, inv)

	w := serve(r, "PUT", "/api/prices/aapl/bars", `[
		{"date": "2024-01-02", "open": 99, "high": 101, "low": 98, "close": 100},
		{"date": "2024-01-03", "open": 100, "high": 104, "low": 99, "close": 103}
	]`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, inv.calls)

	w = serve(r, "GET", "/api/prices/AAPL/history?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Data struct {
			Ticker string `json:"ticker"`
			Bars   []struct {
				Date  string  `json:"date"`
				Close float64 `json:"close"`
			} `json:"bars"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&history))
	assert.Equal(t, "AAPL", history.Data.Ticker)
	require.Len(t, history.Data.Bars, 1)
	assert.Equal(t, "2024-01-03", history.Data.Bars[0].Date)

	w = serve(r, "GET", "/api/prices/latest?tickers=aapl,msft", "")
	require.Equal(t, http.StatusOK, w.Code)
	var latest struct {
		Data map[string]float64 `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&latest))
	assert.Equal(t, map[string]float64{"AAPL": 103}, latest.Data)
}

func TestPriceHandlers_BadInput(t *testing.T) {
	r := setupRouter(t, nil)

	assert.Equal(t, http.StatusBadRequest, serve(r, "GET", "/api/prices/latest", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, "GET", "/api/prices/AAPL/history?limit=-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, "PUT", "/api/prices/AAPL/bars", "nope").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, "PUT", "/api/prices/AAPL/bars", `[{"date": "2024-01-02", "close": 0}]`).Code)
}
