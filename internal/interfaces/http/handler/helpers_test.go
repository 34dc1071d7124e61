package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	appreport "github.com/erp/salesledger/internal/application/report"
	appsales "github.com/erp/salesledger/internal/application/sales"
	"github.com/erp/salesledger/internal/domain/inventory"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/erp/salesledger/internal/infrastructure/logger"
	"github.com/erp/salesledger/internal/infrastructure/persistence/memory"
	infrastrategy "github.com/erp/salesledger/internal/infrastructure/strategy"
	"github.com/erp/salesledger/internal/interfaces/http/dto"
	"github.com/erp/salesledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

const testRequestID = "req-handler-test"

// envelope mirrors dto.Response with a typed payload
type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
}

// apiFixture wires the real services over the in-memory store
type apiFixture struct {
	store  *memory.Store
	engine *gin.Engine
	teamID uuid.UUID
	caller shared.Caller
}

func newAPIFixture(t *testing.T, method strategy.CostMethod) *apiFixture {
	t.Helper()

	store := memory.NewStore()
	saleRepo := memory.NewSaleTransactionRepository(store)
	batchRepo := memory.NewStockBatchRepository(store)

	saleService := appsales.NewSaleService(memory.NewTransactionScope(store), saleRepo, appsales.DefaultRetryPolicy())

	registry, err := infrastrategy.NewRegistryWithDefaults(method)
	require.NoError(t, err)
	cost, err := registry.DefaultCostStrategy()
	require.NoError(t, err)
	planner := appreport.NewQueryPlanner(saleRepo, memory.NewLegacySaleRepository(store))
	reportService := appreport.NewReportService(planner, batchRepo, memory.NewLotRepository(store), cost, nil)

	teamID := uuid.New()
	f := &apiFixture{
		store:  store,
		teamID: teamID,
		caller: shared.NewCaller(uuid.New(), teamID),
	}

	sales := NewSaleHandler(saleService)
	reports := NewReportHandler(reportService)

	engine := gin.New()
	api := engine.Group("/api/v1", func(c *gin.Context) {
		c.Set(logger.GinRequestIDKey, testRequestID)
		if f.caller.IsAuthenticated() {
			c.Set(middleware.CallerKey, f.caller)
		}
		c.Next()
	})
	api.POST("/sales", sales.Record)
	api.GET("/sales/:id", sales.Get)
	api.DELETE("/sales/:id", sales.Delete)
	api.GET("/reports/cogs", reports.COGS)
	api.GET("/batches/:id/unit-cost", reports.UnitCost)

	f.engine = engine
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

// addDirectBatch stores a batch bought as purchaseQty packs of unitsPerPack
func (f *apiFixture) addDirectBatch(t *testing.T, totalCost, purchaseQty, unitsPerPack int64) *inventory.StockBatch {
	t.Helper()
	batch, err := inventory.NewStockBatch(f.teamID, uuid.New(), time.Now(), totalCost,
		purchaseQty*unitsPerPack, inventory.WithPackaging(purchaseQty, unitsPerPack))
	require.NoError(t, err)
	f.store.PutBatch(batch)
	return batch
}

// addLotBatch stores a batch that belongs to lot
func (f *apiFixture) addLotBatch(t *testing.T, lot *inventory.Lot, received int64) *inventory.StockBatch {
	t.Helper()
	batch, err := inventory.NewStockBatch(f.teamID, uuid.New(), lot.AcquiredAt, 0, received, inventory.WithLot(lot.ID))
	require.NoError(t, err)
	f.store.PutBatch(batch)
	return batch
}

func (f *apiFixture) remaining(t *testing.T, batchID uuid.UUID) int64 {
	t.Helper()
	batch, err := memory.NewStockBatchRepository(f.store).FindByID(t.Context(), batchID)
	require.NoError(t, err)
	return batch.QuantityRemaining
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var resp envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func saleBody(soldAt *time.Time, lines ...SaleLineBody) map[string]any {
	body := map[string]any{"lines": lines}
	if soldAt != nil {
		body["sold_at"] = soldAt.Format(time.RFC3339)
	}
	return body
}

func line(batchID uuid.UUID, quantity, unitPrice int64) SaleLineBody {
	return SaleLineBody{BatchID: batchID.String(), Quantity: quantity, UnitPrice: unitPrice}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}
