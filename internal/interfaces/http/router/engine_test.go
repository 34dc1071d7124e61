package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appreport "github.com/erp/salesledger/internal/application/report"
	appsales "github.com/erp/salesledger/internal/application/sales"
	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/erp/salesledger/internal/infrastructure/auth"
	"github.com/erp/salesledger/internal/infrastructure/cache"
	"github.com/erp/salesledger/internal/infrastructure/config"
	"github.com/erp/salesledger/internal/infrastructure/persistence/memory"
	infrastrategy "github.com/erp/salesledger/internal/infrastructure/strategy"
	"github.com/erp/salesledger/internal/interfaces/http/dto"
	"github.com/erp/salesledger/internal/interfaces/http/handler"
	"github.com/erp/salesledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	engine *gin.Engine
	store  *memory.Store
	token  string
	teamID uuid.UUID
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "salesledger", Env: "test"},
		HTTP: config.HTTPConfig{
			MaxBodySize:    1 << 20,
			RequestTimeout: 5 * time.Second,
		},
		Costing:     config.CostingConfig{Method: string(strategy.CostMethodDirectBatch)},
		Idempotency: config.IdempotencyConfig{Enabled: true, Backend: "memory", TTL: time.Hour},
		Telemetry:   config.TelemetryConfig{ServiceName: "salesledger-test"},
	}
}

func newEngineFixture(t *testing.T, mutate func(*Dependencies)) *engineFixture {
	t.Helper()
	middleware.SetupValidator()

	store := memory.NewStore()
	saleRepo := memory.NewSaleTransactionRepository(store)
	saleService := appsales.NewSaleService(memory.NewTransactionScope(store), saleRepo, appsales.DefaultRetryPolicy())

	registry, err := infrastrategy.NewRegistryWithDefaults(strategy.CostMethodDirectBatch)
	require.NoError(t, err)
	cost, err := registry.DefaultCostStrategy()
	require.NoError(t, err)
	reportService := appreport.NewReportService(
		appreport.NewQueryPlanner(saleRepo, memory.NewLegacySaleRepository(store)),
		memory.NewStockBatchRepository(store), memory.NewLotRepository(store), cost, nil)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret: "engine-test-secret-at-least-32-chars",
		Issuer: "salesledger-test",
	})
	teamID := uuid.New()
	token, err := jwtService.IssueAccessToken(auth.IssueTokenInput{
		TenantID: teamID,
		UserID:   uuid.New(),
		Username: "clerk",
		TTL:      time.Hour,
	})
	require.NoError(t, err)

	idempotency := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idempotency.Close() })

	deps := Dependencies{
		Config:      testConfig(),
		Version:     "test",
		JWT:         jwtService,
		Sales:       saleService,
		Reports:     reportService,
		Idempotency: idempotency,
	}
	if mutate != nil {
		mutate(&deps)
	}

	return &engineFixture{
		engine: NewEngine(deps),
		store:  store,
		token:  token,
		teamID: teamID,
	}
}

func (f *engineFixture) request(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *engineFixture) addBatch(t *testing.T, received int64) *inventory.StockBatch {
	t.Helper()
	batch, err := inventory.NewStockBatch(f.teamID, uuid.New(), time.Now(), received*100, received,
		inventory.WithPackaging(received, 1))
	require.NoError(t, err)
	f.store.PutBatch(batch)
	return batch
}

func saleRequest(batchID uuid.UUID, quantity int64) map[string]any {
	return map[string]any{
		"lines": []map[string]any{{"batch_id": batchID.String(), "quantity": quantity, "unit_price": 150}},
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestNewEngine_RecordsSaleThroughFullChain(t *testing.T) {
	f := newEngineFixture(t, nil)
	batch := f.addBatch(t, 24)

	w := f.request(http.MethodPost, "/api/v1/sales", saleRequest(batch.ID, 3), map[string]string{
		middleware.RequestIDHeader: "client-req-1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, "client-req-1", w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	var resp struct {
		Data appsales.SaleTransactionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(450), resp.Data.Total)
	assert.Equal(t, f.teamID, resp.Data.TeamID)

	w = f.request(http.MethodGet, "/api/v1/reports/cogs?start=2000-01-01T00:00:00Z&end=2100-01-01T00:00:00Z", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report struct {
		Data handler.COGSReportResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "300.00", report.Data.TotalCOGS)
}

func TestNewEngine_RequiresToken(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.token = "not-a-token"

	w := f.request(http.MethodGet, "/api/v1/reports/cogs", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, shared.CodeUnauthorized, errorCode(t, w))

	w = f.request(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code, "probes are public")
}

func TestNewEngine_IdempotencyKey(t *testing.T) {
	f := newEngineFixture(t, nil)
	batch := f.addBatch(t, 24)
	headers := map[string]string{middleware.IdempotencyKeyHeader: "checkout-42"}

	w := f.request(http.MethodPost, "/api/v1/sales", saleRequest(batch.ID, 1), headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.request(http.MethodPost, "/api/v1/sales", saleRequest(batch.ID, 1), headers)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.CodeDuplicateRequest, errorCode(t, w))

	got, err := memory.NewStockBatchRepository(f.store).FindByID(context.Background(), batch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(23), got.QuantityRemaining, "the repeated submission is not committed")
}

func TestNewEngine_IdempotencyKeyReleasedOnRejection(t *testing.T) {
	f := newEngineFixture(t, nil)
	batch := f.addBatch(t, 2)
	headers := map[string]string{middleware.IdempotencyKeyHeader: "checkout-43"}

	w := f.request(http.MethodPost, "/api/v1/sales", saleRequest(batch.ID, 5), headers)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = f.request(http.MethodPost, "/api/v1/sales", saleRequest(batch.ID, 2), headers)
	assert.Equal(t, http.StatusCreated, w.Code, "a rejected sale can be resubmitted with the same key")
}

func TestNewEngine_RateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Stop)
	f := newEngineFixture(t, func(d *Dependencies) { d.RateLimiter = limiter })

	for i := 0; i < 2; i++ {
		w := f.request(http.MethodGet, "/api/v1/system/info", nil, nil)
		require.Equal(t, http.StatusOK, w.Code, fmt.Sprintf("request %d", i))
	}
	w := f.request(http.MethodGet, "/api/v1/system/info", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, dto.CodeRateLimited, errorCode(t, w))
}

func TestNewEngine_Readiness(t *testing.T) {
	f := newEngineFixture(t, func(d *Dependencies) {
		d.ReadinessChecks = []handler.ReadinessCheck{{
			Name:  "database",
			Check: func(context.Context) error { return errors.New("connection refused") },
		}}
	})

	w := f.request(http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNewEngine_BodyLimit(t *testing.T) {
	f := newEngineFixture(t, func(d *Dependencies) { d.Config.HTTP.MaxBodySize = 16 })
	batch := f.addBatch(t, 24)

	w := f.request(http.MethodPost, "/api/v1/sales", saleRequest(batch.ID, 1), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, dto.CodeRequestTooLarge, errorCode(t, w))
}

func TestNewEngine_SystemInfo(t *testing.T) {
	f := newEngineFixture(t, nil)

	w := f.request(http.MethodGet, "/api/v1/system/info", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data handler.SystemInfoResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "salesledger", resp.Data.Name)
	assert.Equal(t, "direct_batch", resp.Data.CostMethod)
}
