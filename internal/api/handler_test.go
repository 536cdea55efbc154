package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coinpulse/market-etl/pkg/model"
)

// --- Mock store ---

type mockStore struct {
	snapshots []model.Snapshot
	snapshot  *model.Snapshot
	runs      []model.RunLog
	err       error
	healthErr error

	gotCoinID string
	gotLimit  int
}

func (m *mockStore) EnsureSchema(ctx context.Context) error { return nil }
func (m *mockStore) UpsertSnapshots(ctx context.Context, s []model.Snapshot) (int, error) {
	return 0, nil
}
func (m *mockStore) InsertRunLog(ctx context.Context, status string, errMsg *string, records int) error {
	return nil
}
func (m *mockStore) ListSnapshots(ctx context.Context) ([]model.Snapshot, error) {
	return m.snapshots, m.err
}
func (m *mockStore) GetSnapshot(ctx context.Context, coinID string) (*model.Snapshot, error) {
	m.gotCoinID = coinID
	return m.snapshot, m.err
}
func (m *mockStore) ListRuns(ctx context.Context, limit int) ([]model.RunLog, error) {
	m.gotLimit = limit
	return m.runs, m.err
}
func (m *mockStore) HealthCheck(ctx context.Context) error { return m.healthErr }
func (m *mockStore) Close() error                          { return nil }

// --- Helpers ---

func newTestApp(st *mockStore) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, NewHandler(zap.NewNop(), st))
	return app
}

func doGet(t *testing.T, app *fiber.App, path string) (*http.Response, []byte) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

// --- Tests ---

func TestListSnapshots(t *testing.T) {
	now := time.Now().UTC()
	st := &mockStore{snapshots: []model.Snapshot{
		{CoinID: "bitcoin", Symbol: "BTC", Name: "Bitcoin",
			PriceUSD: decimal.NewFromInt(50000), PriceINR: decimal.NewFromInt(4200000), FetchedAt: now},
	}}

	resp, body := doGet(t, newTestApp(st), "/api/v1/snapshots")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Count     int              `json:"count"`
		Snapshots []model.Snapshot `json:"snapshots"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 1, result.Count)
	require.Len(t, result.Snapshots, 1)
	assert.Equal(t, "bitcoin", result.Snapshots[0].CoinID)
}

func TestListSnapshots_StoreError(t *testing.T) {
	st := &mockStore{err: fmt.Errorf("boom")}

	resp, _ := doGet(t, newTestApp(st), "/api/v1/snapshots")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestGetSnapshot(t *testing.T) {
	st := &mockStore{snapshot: &model.Snapshot{CoinID: "ethereum", Symbol: "ETH", Name: "Ethereum"}}

	resp, body := doGet(t, newTestApp(st), "/api/v1/snapshots/ethereum")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ethereum", st.gotCoinID)

	var snap model.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, "ETH", snap.Symbol)
}

func TestGetSnapshot_NotFound(t *testing.T) {
	st := &mockStore{}

	resp, _ := doGet(t, newTestApp(st), "/api/v1/snapshots/doesnotexist")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListRuns(t *testing.T) {
	msg := "API Request failed"
	st := &mockStore{runs: []model.RunLog{
		{ID: 2, Status: model.RunStatusSuccess, RecordsProcessed: 10, CreatedAt: time.Now()},
		{ID: 1, Status: model.RunStatusFailed, ErrorMessage: &msg, CreatedAt: time.Now()},
	}}

	resp, body := doGet(t, newTestApp(st), "/api/v1/runs?limit=5")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, st.gotLimit)

	var result struct {
		Count int            `json:"count"`
		Runs  []model.RunLog `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, model.RunStatusFailed, result.Runs[1].Status)
	require.NotNil(t, result.Runs[1].ErrorMessage)
}

func TestHealth(t *testing.T) {
	resp, _ := doGet(t, newTestApp(&mockStore{}), "/health")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHealth_Down(t *testing.T) {
	st := &mockStore{healthErr: fmt.Errorf("postgres: connection refused")}

	resp, _ := doGet(t, newTestApp(st), "/health")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
