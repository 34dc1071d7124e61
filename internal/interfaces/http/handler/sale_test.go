package handler

import (
	"net/http"
	"testing"

	appsales "github.com/erp/salesledger/internal/application/sales"
	"github.com/erp/salesledger/internal/domain/shared"
	"github.com/erp/salesledger/internal/domain/shared/strategy"
	"github.com/erp/salesledger/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleHandler_Record_Success(t *testing.T) {
	f := newAPIFixture(t, strategy.CostMethodDirectBatch)
	batch := f.addDirectBatch(t, 2400, 24, 1)

	rec := f.do(t, http.MethodPost, "/api/v1/sales", saleBody(nil, line(batch.ID, 3, 150)))
	assertStatus(t, rec, http.StatusCreated)

	resp := decode[appsales.SaleTransactionResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, f.teamID, resp.Data.TeamID)
	assert.Equal(t, int64(450), resp.Data.Subtotal)
	assert.Equal(t, int64(450), resp.Data.Total)
	require.Len(t, resp.Data.Lines, 1)
	assert.Equal(t, 0, resp.Data.Lines[0].LineIndex)
	assert.Equal(t, int64(450), resp.Data.Lines[0].LineTotal)
	require.NotNil(t, resp.Data.CreatedBy)
	assert.Equal(t, f.caller.UserID, *resp.Data.CreatedBy)

	assert.Equal(t, int64(21), f.remaining(t, batch.ID))
}

func TestSaleHandler_Record_InsufficientStockReportsLine(t *testing.T) {
	f := newAPIFixture(t, strategy.CostMethodDirectBatch)
	plenty := f.addDirectBatch(t, 1000, 10, 1)
	short := f.addDirectBatch(t, 300, 3, 1)

	rec := f.do(t, http.MethodPost, "/api/v1/sales",
		saleBody(nil, line(plenty.ID, 1, 200), line(short.ID, 5, 200)))
	assertStatus(t, rec, http.StatusUnprocessableEntity)

	resp := decode[any](t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, shared.CodeInsufficientStock, resp.Error.Code)
	assert.Equal(t, "Insufficient stock: available 3, requested 5", resp.Error.Message)
	require.NotNil(t, resp.Error.LineIndex)
	assert.Equal(t, 1, *resp.Error.LineIndex)
	assert.Equal(t, testRequestID, resp.Error.RequestID)

	assert.Equal(t, int64(10), f.remaining(t, plenty.ID), "no line of a rejected sale is debited")
	assert.Equal(t, int64(3), f.remaining(t, short.ID))
}

func TestSaleHandler_Record_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		body       func(f *apiFixture, batch uuid.UUID) any
		headers    []string
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{
			name:       "missing lines",
			body:       func(*apiFixture, uuid.UUID) any { return map[string]any{"customer_name": "Ann"} },
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.CodeValidation,
			wantField:  "lines",
		},
		{
			name:       "empty lines",
			body:       func(*apiFixture, uuid.UUID) any { return map[string]any{"lines": []SaleLineBody{}} },
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeInvalidQuantity,
		},
		{
			name: "malformed batch id",
			body: func(*apiFixture, uuid.UUID) any {
				return map[string]any{"lines": []map[string]any{{"batch_id": "nope", "quantity": 1, "unit_price": 1}}}
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.CodeValidation,
			wantField:  "lines[0].batch_id",
		},
		{
			name:       "malformed json",
			body:       func(*apiFixture, uuid.UUID) any { return `{"lines": [` },
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.CodeBadRequest,
		},
		{
			name:       "zero quantity",
			body:       func(_ *apiFixture, b uuid.UUID) any { return saleBody(nil, line(b, 0, 100)) },
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeInvalidQuantity,
		},
		{
			name: "discount above subtotal plus tax",
			body: func(_ *apiFixture, b uuid.UUID) any {
				body := saleBody(nil, line(b, 1, 100))
				body["tax"] = 10
				body["discount"] = 111
				return body
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeInvalidAmount,
		},
		{
			name:       "unknown batch",
			body:       func(*apiFixture, uuid.UUID) any { return saleBody(nil, line(uuid.New(), 1, 100)) },
			wantStatus: http.StatusNotFound,
			wantCode:   shared.CodeNotFound,
		},
		{
			name:       "team the caller does not belong to",
			body:       func(_ *apiFixture, b uuid.UUID) any { return saleBody(nil, line(b, 1, 100)) },
			headers:    []string{"X-Team-ID", uuid.NewString()},
			wantStatus: http.StatusForbidden,
			wantCode:   shared.CodeForbidden,
		},
		{
			name:       "malformed team header",
			body:       func(_ *apiFixture, b uuid.UUID) any { return saleBody(nil, line(b, 1, 100)) },
			headers:    []string{"X-Team-ID", "team-a"},
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t, strategy.CostMethodDirectBatch)
			batch := f.addDirectBatch(t, 2400, 24, 1)

			rec := f.do(t, http.MethodPost, "/api/v1/sales", tt.body(f, batch.ID), tt.headers...)
			assertStatus(t, rec, tt.wantStatus)

			resp := decode[any](t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantField != "" {
				require.NotEmpty(t, resp.Error.Details)
				assert.Equal(t, tt.wantField, resp.Error.Details[0].Field)
			}
			assert.Equal(t, int64(24), f.remaining(t, batch.ID))
		})
	}
}

func TestSaleHandler_Record_ForeignBatch(t *testing.T) {
	f := newAPIFixture(t, strategy.CostMethodDirectBatch)
	own := f.addDirectBatch(t, 1000, 10, 1)

	other := newAPIFixture(t, strategy.CostMethodDirectBatch)
	foreign := other.addDirectBatch(t, 1000, 10, 1)
	f.store.PutBatch(foreign)

	rec := f.do(t, http.MethodPost, "/api/v1/sales",
		saleBody(nil, line(own.ID, 1, 100), line(foreign.ID, 1, 100)))
	assertStatus(t, rec, http.StatusForbidden)

	resp := decode[any](t, rec)
	require.NotNil(t, resp.Error.LineIndex)
	assert.Equal(t, 1, *resp.Error.LineIndex)
	assert.Equal(t, int64(10), f.remaining(t, own.ID))
}

func TestSaleHandler_Record_Unauthenticated(t *testing.T) {
	f := newAPIFixture(t, strategy.CostMethodDirectBatch)
	batch := f.addDirectBatch(t, 2400, 24, 1)
	f.caller = shared.Caller{}

	rec := f.do(t, http.MethodPost, "/api/v1/sales", saleBody(nil, line(batch.ID, 1, 100)))
	assertStatus(t, rec, http.StatusUnauthorized)
	assert.Equal(t, shared.CodeUnauthorized, decode[any](t, rec).Error.Code)
}

func TestSaleHandler_GetAndDelete(t *testing.T) {
	f := newAPIFixture(t, strategy.CostMethodDirectBatch)
	batch := f.addDirectBatch(t, 2400, 24, 1)

	rec := f.do(t, http.MethodPost, "/api/v1/sales", saleBody(nil, line(batch.ID, 4, 150)))
	assertStatus(t, rec, http.StatusCreated)
	created := decode[appsales.SaleTransactionResponse](t, rec).Data
	path := "/api/v1/sales/" + created.ID.String()

	rec = f.do(t, http.MethodGet, path, nil)
	assertStatus(t, rec, http.StatusOK)
	fetched := decode[appsales.SaleTransactionResponse](t, rec).Data
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, int64(600), fetched.Total)

	rec = f.do(t, http.MethodDelete, path, nil)
	assertStatus(t, rec, http.StatusNoContent)

	rec = f.do(t, http.MethodGet, path, nil)
	assertStatus(t, rec, http.StatusNotFound)

	assert.Equal(t, int64(20), f.remaining(t, batch.ID), "deleting a sale does not restock")

	rec = f.do(t, http.MethodDelete, path, nil)
	assertStatus(t, rec, http.StatusNotFound)
}

func TestSaleHandler_Get_InvalidID(t *testing.T) {
	f := newAPIFixture(t, strategy.CostMethodDirectBatch)

	rec := f.do(t, http.MethodGet, "/api/v1/sales/not-a-uuid", nil)
	assertStatus(t, rec, http.StatusBadRequest)
	assert.Equal(t, dto.CodeValidation, decode[any](t, rec).Error.Code)
}

func TestSaleHandler_Get_OtherTeam(t *testing.T) {
	f := newAPIFixture(t, strategy.CostMethodDirectBatch)
	batch := f.addDirectBatch(t, 2400, 24, 1)

	rec := f.do(t, http.MethodPost, "/api/v1/sales", saleBody(nil, line(batch.ID, 1, 150)))
	assertStatus(t, rec, http.StatusCreated)
	created := decode[appsales.SaleTransactionResponse](t, rec).Data

	outsider := uuid.New()
	f.caller = shared.NewCaller(uuid.New(), outsider)

	rec = f.do(t, http.MethodGet, "/api/v1/sales/"+created.ID.String(), nil)
	assertStatus(t, rec, http.StatusForbidden)
	assert.Equal(t, shared.CodeForbidden, decode[any](t, rec).Error.Code)
}
