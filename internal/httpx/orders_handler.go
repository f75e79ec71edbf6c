package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/mkristof/go-storefront/internal/catalog"
	"github.com/mkristof/go-storefront/internal/checkout"
	"github.com/mkristof/go-storefront/internal/orders"
	"github.com/mkristof/go-storefront/internal/payment"
	"github.com/mkristof/go-storefront/internal/redisx"
)

type OrdersHandler struct {
	Materializer *checkout.Materializer
	Orders       orders.Store
	Catalog      catalog.Catalog
	Redis        *redis.Client // optional status cache
}

type checkoutReq struct {
	Shipping orders.ShippingDetails `json:"shipping"`
	Payment  payment.Details        `json:"payment"`
}

type statusReq struct {
	Status orders.Status `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Group(func(r chi.Router) {
		r.Use(RequireUser)
		r.Post("/checkout", h.checkoutCart)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{orderID}", h.getOrder)
	})
	// fulfillment-facing; no user principal involved
	r.Put("/internal/orders/{orderID}/status", h.setStatus)
	r.Get("/internal/orders/{orderID}/status", h.getStatus)
}

func (h *OrdersHandler) checkoutCart(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	o, err := h.Materializer.Checkout(ctx, userID(r), checkout.Request{
		Shipping: req.Shipping,
		Payment:  req.Payment,
	})
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out, err := h.Orders.ListByUser(ctx, userID(r))
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	if out == nil {
		out = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.Get(ctx, userID(r), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// read-through cache, DB remains the source of truth
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	status, err := h.Orders.GetStatus(ctx, orderID)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	body, _ := json.Marshal(map[string]any{"status": status})
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *OrdersHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !orders.ValidStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	orderID := chi.URLParam(r, "orderID")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Orders.SetStatus(ctx, orderID, req.Status); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Err()
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": orderID, "status": req.Status})
}

func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.ListProducts(ctx)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ps)
}
