package server

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/bourse/internal/config"
	"github.com/aristath/bourse/internal/events"
	"github.com/aristath/bourse/internal/services"
	"github.com/aristath/bourse/internal/store"
	testhelpers "github.com/aristath/bourse/internal/testing"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	log := zerolog.Nop()
	marketDB, marketCleanup := testhelpers.NewTestDB(t, "market")
	t.Cleanup(marketCleanup)
	snapshotDB, snapshotCleanup := testhelpers.NewTestDB(t, "snapshots")
	t.Cleanup(snapshotCleanup)

	candles, err := store.NewCandleRepository(marketDB.Conn(), log)
	require.NoError(t, err)
	snapshots, err := store.NewSnapshotRepository(snapshotDB.Conn(), log)
	require.NoError(t, err)

	bus := events.NewBus(log)
	sim := services.NewSimulationService(
		testhelpers.NewTestEngine(),
		rand.New(rand.NewSource(11)),
		bus, candles, snapshots, 3, log,
	)
	require.NoError(t, sim.Bootstrap(testhelpers.NewTestUniverse(), false))

	return New(Config{
		Log:        log,
		Cfg:        &config.Config{Port: 0, AdvanceSeconds: 3600, DevMode: true},
		Sim:        sim,
		Candles:    candles,
		Snapshots:  snapshots,
		Bus:        bus,
		MarketDB:   marketDB,
		SnapshotDB: snapshotDB,
	})
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec, body := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestMarketEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec, body := doJSON(t, srv, http.MethodGet, "/api/market", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Greater(t, body["index_value"].(float64), 0.0)
	assert.Equal(t, float64(2), body["companies"])
}

func TestCompanyEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := doJSON(t, srv, http.MethodGet, "/api/companies", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := doJSON(t, srv, http.MethodGet, "/api/companies/ALFA", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALFA", body["symbol"])

	rec, _ = doJSON(t, srv, http.MethodGet, "/api/companies/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdvanceEndpoint(t *testing.T) {
	srv := newTestServer(t)

	// 48 simulated hours close at least one day regardless of the
	// clock's starting offset.
	rec, body := doJSON(t, srv, http.MethodPost, "/api/advance", map[string]int{"seconds": 48 * 3600})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.GreaterOrEqual(t, body["days_closed"].(float64), 1.0)

	// Closed days show up as stored candles.
	rec, body = doJSON(t, srv, http.MethodGet, "/api/companies/ALFA/candles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["candles"])

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/advance", map[string]int{"seconds": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlayerTradeEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec, body := doJSON(t, srv, http.MethodPost, "/api/player/buy", map[string]interface{}{
		"symbol": "ALFA", "shares": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["shares"])

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/player/sell", map[string]interface{}{
		"symbol": "ALFA", "shares": 1000,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/player/buy", map[string]interface{}{
		"symbol": "", "shares": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec, body := doJSON(t, srv, http.MethodPost, "/api/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["snapshot_id"])

	req := httptest.NewRequest(http.MethodGet, "/api/snapshots", nil)
	listRec := httptest.NewRecorder()
	srv.Router().ServeHTTP(listRec, req)
	require.Equal(t, http.StatusOK, listRec.Code)

	var snapshots []store.Snapshot
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &snapshots))
	assert.Len(t, snapshots, 1)
}

func TestNewsEndpointLimitValidation(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := doJSON(t, srv, http.MethodGet, "/api/news?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, srv, http.MethodGet, "/api/news", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
