package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"greencart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

const orderBody = `{"items":[{"product":"P1","quantity":2},{"product":"P2","quantity":1}],"address":"a1","promoCode":"cart11"}`

func placedOrder(paymentType model.PaymentType) *model.Order {
	code := "CART11"
	return &model.Order{
		ID:          uuid.New(),
		UserID:      "user-1",
		Amount:      decimal.RequireFromString("40.95"),
		Status:      model.StatusOrderPlaced,
		PaymentType: paymentType,
		PromoCode:   &code,
	}
}

func TestOrderHandler_PlaceCOD(t *testing.T) {
	tests := []struct {
		name           string
		mockReturn     *model.PlacedOrder
		mockError      error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			mockReturn:     &model.PlacedOrder{Order: placedOrder(model.PaymentCOD)},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Invalid promo code",
			mockError:      model.ErrInvalidPromoCode,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidPromoCode,
		},
		{
			name:           "Invalid order",
			mockError:      model.ErrInvalidOrder.WithMessage("Product not found: P2"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidOrder,
		},
		{
			name:           "Storage failure",
			mockError:      errors.New("failed to create order: connection reset"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			matchReq := mock.MatchedBy(func(r *model.OrderRequest) bool {
				return len(r.Items) == 2 && r.Address == "a1" && r.PromoCode == "cart11"
			})
			if tt.mockError != nil {
				svc.On("PlaceOrder", mock.Anything, "user-1", matchReq, model.PaymentCOD, "").Return(nil, tt.mockError)
			} else {
				svc.On("PlaceOrder", mock.Anything, "user-1", matchReq, model.PaymentCOD, "").Return(tt.mockReturn, nil)
			}
			h := NewOrderHandler(svc, zerolog.Nop())

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/order/cod", bytes.NewBufferString(orderBody))
			h.PlaceCOD(w, asUser(req, "user-1"))

			assert.Equal(t, tt.expectedStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.mockError != nil {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.expectedCode, body["code"])
				return
			}
			assert.Equal(t, true, body["success"])
			data := body["data"].(map[string]interface{})
			assert.Equal(t, 40.95, data["amount"])
			assert.Equal(t, "Order Placed", data["status"])
			assert.Equal(t, "COD", data["paymentType"])
			svc.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_PlaceOnline(t *testing.T) {
	t.Run("Returns checkout URL", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("PlaceOrder", mock.Anything, "user-1", mock.Anything, model.PaymentOnline, "http://localhost:5173").
			Return(&model.PlacedOrder{Order: placedOrder(model.PaymentOnline), URL: "https://checkout.example/cs_1"}, nil)
		h := NewOrderHandler(svc, zerolog.Nop())

		req := httptest.NewRequest(http.MethodPost, "/api/order/stripe", bytes.NewBufferString(orderBody))
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		h.PlaceOnline(w, asUser(req, "user-1"))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"url":"https://checkout.example/cs_1"`)
	})

	t.Run("Gateway unavailable", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("PlaceOrder", mock.Anything, "user-1", mock.Anything, model.PaymentOnline, "").
			Return(nil, model.ErrExternalGateway.Wrap("Failed to create payment session", errors.New("timeout")))
		h := NewOrderHandler(svc, zerolog.Nop())

		w := httptest.NewRecorder()
		h.PlaceOnline(w, asUser(httptest.NewRequest(http.MethodPost, "/api/order/stripe", bytes.NewBufferString(orderBody)), "user-1"))

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"Failed to create payment session","code":"EXTERNAL_GATEWAY"}`, w.Body.String())
	})
}

func TestOrderHandler_ListUser(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("ListUserOrders", mock.Anything, "user-1").Return([]model.OrderView{
		{
			ID:     uuid.New(),
			Amount: decimal.RequireFromString("45.90"),
			Items:  []model.OrderItemView{{Product: &model.Product{ID: "P1", Name: "Apples"}, Quantity: 2}},
			Status: model.StatusPaymentConfirmed,
			IsPaid: true,
		},
	}, nil)
	h := NewOrderHandler(svc, zerolog.Nop())

	w := httptest.NewRecorder()
	h.ListUser(w, asUser(httptest.NewRequest(http.MethodGet, "/api/order/user", nil), "user-1"))

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool `json:"success"`
		Orders  []struct {
			Amount float64 `json:"amount"`
			Status string  `json:"status"`
			Items  []struct {
				Product struct {
					Name string `json:"name"`
				} `json:"product"`
				Quantity int `json:"quantity"`
			} `json:"items"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Orders, 1)
	assert.Equal(t, 45.9, body.Orders[0].Amount)
	assert.Equal(t, "Payment Confirmed", body.Orders[0].Status)
	assert.Equal(t, "Apples", body.Orders[0].Items[0].Product.Name)
}

func TestOrderHandler_ListSellerEmpty(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("ListAllOrders", mock.Anything).Return(nil, nil)
	h := NewOrderHandler(svc, zerolog.Nop())

	w := httptest.NewRecorder()
	h.ListSeller(w, httptest.NewRequest(http.MethodGet, "/api/order/seller", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"orders":[]}`, w.Body.String())
}

func TestOrderHandler_Export(t *testing.T) {
	code := "CART11"
	orders := []model.OrderView{
		{
			ID:          uuid.New(),
			Amount:      decimal.RequireFromString("40.95"),
			Address:     &model.Address{FirstName: "Asha", LastName: "Rao", City: "Pune"},
			Items:       []model.OrderItemView{{Product: &model.Product{Name: "Apples"}, Quantity: 2}, {Quantity: 1}},
			Status:      model.StatusOrderPlaced,
			PaymentType: model.PaymentCOD,
			PromoCode:   &code,
			CreatedAt:   time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		},
	}
	svc := new(MockOrderService)
	svc.On("ListAllOrders", mock.Anything).Return(orders, nil)
	h := NewOrderHandler(svc, zerolog.Nop())
	h.now = func() time.Time { return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) }

	w := httptest.NewRecorder()
	h.Export(w, httptest.NewRequest(http.MethodGet, "/api/order/seller/export", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=orders-20260302.xlsx", w.Header().Get("Content-Disposition"))

	file, err := xlsx.OpenBinary(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	sheet := file.Sheets[0]
	require.Len(t, sheet.Rows, 2)

	assert.Equal(t, "Order ID", sheet.Rows[0].Cells[0].String())
	row := sheet.Rows[1].Cells
	assert.Equal(t, orders[0].ID.String(), row[0].String())
	assert.Equal(t, "2026-03-01 10:30:00", row[1].String())
	assert.Equal(t, "Asha Rao", row[2].String())
	assert.Equal(t, "Pune", row[3].String())
	assert.Equal(t, "Apples x2; (removed product) x1", row[4].String())
	amount, err := row[5].Float()
	require.NoError(t, err)
	assert.Equal(t, 40.95, amount)
	assert.Equal(t, "COD", row[6].String())
	assert.False(t, row[7].Bool())
	assert.Equal(t, "Order Placed", row[8].String())
	assert.Equal(t, "CART11", row[9].String())
}
