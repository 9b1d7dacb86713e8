package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/internal/ports"
	"github.com/Gunvolt24/ordersync/pkg/httpx"
	"github.com/Gunvolt24/ordersync/pkg/validate"
	"github.com/gin-gonic/gin"
)

// Handler — HTTP-обработчики поверх сервиса заказов.
type Handler struct {
	service    ports.OrderService
	log        ports.Logger
	reqTimeout time.Duration
}

// NewHandler — reqTimeout <= 0 означает отсутствие собственного таймаута обработчика.
func NewHandler(service ports.OrderService, log ports.Logger, reqTimeout time.Duration) *Handler {
	return &Handler{service: service, log: log, reqTimeout: reqTimeout}
}

// requestContext — контекст запроса с таймаутом обработчика.
func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.reqTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.reqTimeout)
}

// replaceOrderRequest — тело PUT: полная замена изменяемых полей.
type replaceOrderRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// toPatch — отсутствующее описание заменяется пустой строкой.
func (r replaceOrderRequest) toPatch() (domain.OrderPatch, error) {
	if r.Name == nil {
		return domain.OrderPatch{}, domain.NewValidationError(domain.FieldViolation{Field: "name", Rule: "required"})
	}
	desc := ""
	if r.Description != nil {
		desc = *r.Description
	}
	return domain.OrderPatch{Name: r.Name, Description: &desc}, nil
}

func (h *Handler) createOrder(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var in domain.CreateOrderInput
	if err := decodeBody(c, &in); err != nil {
		h.writeError(c, err)
		return
	}

	order, err := h.service.Create(ctx, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Location", "/orders/"+strconv.FormatInt(order.ID, 10))
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) getOrderByID(c *gin.Context) {
	id, err := httpx.ParseID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	order, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) replaceOrder(c *gin.Context) {
	id, err := httpx.ParseID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}

	var req replaceOrderRequest
	if err = decodeBody(c, &req); err != nil {
		h.writeError(c, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.update(c, id, patch)
}

func (h *Handler) patchOrder(c *gin.Context) {
	id, err := httpx.ParseID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}

	var patch domain.OrderPatch
	if err = decodeBody(c, &patch); err != nil {
		h.writeError(c, err)
		return
	}
	h.update(c, id, patch)
}

func (h *Handler) update(c *gin.Context, id int64, patch domain.OrderPatch) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	order, err := h.service.Update(ctx, id, patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	id, err := httpx.ParseID(c, "id")
	if err != nil {
		h.writeError(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err = h.service.Delete(ctx, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// searchOrders — GET /orders?query=&from=&to=&offset=&limit=&sort=
func (h *Handler) searchOrders(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	page, err := h.service.Search(ctx, filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func parseFilter(c *gin.Context) (domain.OrderFilter, error) {
	limit, offset, err := httpx.ParseLimitOffset(c)
	if err != nil {
		return domain.OrderFilter{}, err
	}
	from, err := httpx.QueryTimeBound(c, "from", false)
	if err != nil {
		return domain.OrderFilter{}, err
	}
	// дата без времени в to: конец этих суток
	to, err := httpx.QueryTimeBound(c, "to", true)
	if err != nil {
		return domain.OrderFilter{}, err
	}
	sort, err := domain.ParseSortOrder(c.Query("sort"))
	if err != nil {
		return domain.OrderFilter{}, err
	}
	return domain.OrderFilter{
		Query:  c.Query("query"),
		From:   from,
		To:     to,
		Offset: offset,
		Limit:  limit,
		Sort:   sort,
	}, nil
}

func (h *Handler) ready(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	r, err := h.service.Ready(ctx)
	if err != nil {
		h.log.Warnf(ctx, "readiness check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	// деградировавшие зеркала видны в теле, но экземпляр остаётся в балансировке
	c.JSON(http.StatusOK, gin.H{"status": r.Status(), "mirrors": r.Mirrors})
}

// decodeBody — строгое чтение JSON-тела.
func decodeBody(c *gin.Context, dst any) error {
	raw, err := c.GetRawData()
	if err != nil {
		return domain.NewValidationError(domain.FieldViolation{Field: "body", Rule: "readable"})
	}
	return validate.DecodeStrict(raw, dst)
}
