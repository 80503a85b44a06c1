package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"

	"tienda/pkg/order"
	"tienda/pkg/otel"
	"tienda/pkg/session"
)

type ordersPage struct {
	Orders []order.Order `json:"orders"`
	Flash  session.Flash `json:"flash"`
}

type orderForm struct {
	Statuses []order.Status `json:"statuses"`
	Flash    session.Flash  `json:"flash"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// listOrders lists every order.
// @Summary List orders
// @Produce json
// @Success 200 {object} ordersPage
// @Router /orders [get]
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listOrders")
	defer span.End()

	orders, err := h.orders.List(ctx)
	if err != nil {
		h.writeError(w, r, "list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, ordersPage{Orders: orders, Flash: h.flash(r)})
}

// newOrder describes the order form.
// @Summary Order form
// @Produce json
// @Success 200 {object} orderForm
// @Router /orders/new [get]
func (h *Handler) newOrder(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orderForm{Statuses: order.Statuses, Flash: h.flash(r)})
}

// createOrder stores a new order.
// @Summary Create order
// @Description Line items are a flat list of name, quantity, price triples.
// @Accept json,x-www-form-urlencoded
// @Param order body order.CreateInput true "Order"
// @Success 303
// @Failure 500
// @Router /orders [post]
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createOrder")
	defer span.End()

	in, err := decodeCreate(r)
	if err != nil {
		h.setError(r, "malformed order")
		redirect(w, r, "/orders/new")
		return
	}
	o, err := h.orders.Create(ctx, in)
	if errors.Is(err, order.ErrValidation) {
		h.setError(r, flashText(err))
		redirect(w, r, "/orders/new")
		return
	}
	if err != nil {
		h.writeError(w, r, "create order", err)
		return
	}
	span.SetAttributes(attribute.Int("order.id", o.ID))
	h.setMessage(r, fmt.Sprintf("Order %d created", o.ID))
	redirect(w, r, "/orders")
}

func decodeCreate(r *http.Request) (order.CreateInput, error) {
	var in order.CreateInput
	if isJSON(r) {
		err := json.NewDecoder(r.Body).Decode(&in)
		return in, err
	}
	if err := r.ParseForm(); err != nil {
		return in, err
	}
	in.Client = r.PostForm.Get("client")
	in.Date = r.PostForm.Get("date")
	in.Status = r.PostForm.Get("status")
	in.LineItems = r.PostForm["lineItems[]"]
	if len(in.LineItems) == 0 {
		in.LineItems = r.PostForm["lineItems"]
	}
	return in, nil
}

// getOrder returns one order.
// @Summary Get order
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} order.Order
// @Failure 404
// @Router /orders/{id} [get]
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrder")
	defer span.End()

	id, ok := orderID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	o, err := h.orders.Get(ctx, id)
	if err != nil {
		h.writeError(w, r, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// updateOrder changes the status of an order.
// @Summary Update order status
// @Accept json,x-www-form-urlencoded
// @Param id path int true "Order ID"
// @Param status body statusRequest true "New status"
// @Success 303
// @Failure 400
// @Failure 404
// @Router /orders/{id} [put]
func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateOrder")
	defer span.End()

	id, ok := orderID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	var req statusRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed body", http.StatusBadRequest)
			return
		}
	} else {
		req.Status = r.PostFormValue("status")
	}
	if _, err := h.orders.UpdateStatus(ctx, id, req.Status); err != nil {
		h.writeError(w, r, "update order", err)
		return
	}
	redirect(w, r, fmt.Sprintf("/orders/%d", id))
}

// deleteOrder removes an order.
// @Summary Delete order
// @Param id path int true "Order ID"
// @Success 303
// @Failure 404
// @Router /orders/{id} [delete]
func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "deleteOrder")
	defer span.End()

	id, ok := orderID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := h.orders.Delete(ctx, id); err != nil {
		h.writeError(w, r, "delete order", err)
		return
	}
	redirect(w, r, "/orders")
}

func orderID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	return id, err == nil
}
