package rest

import (
	"net/http"

	"github.com/Gunvolt24/ordersync/pkg/httpx"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter — маршруты сервиса заказов и служебные эндпоинты.
// otelServiceName пустой: трейсинг запросов выключен.
func NewRouter(h *Handler, otelServiceName string) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(httpx.RequestIDMiddleware())
	if otelServiceName != "" {
		r.Use(otelgin.Middleware(otelServiceName))
	}
	r.Use(httpx.RequestLogger(h.log))

	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/readyz", h.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	orders := r.Group("/orders")
	orders.POST("", h.createOrder)
	orders.GET("", h.searchOrders)
	orders.GET("/:id", h.getOrderByID)
	orders.PUT("/:id", h.replaceOrder)
	orders.PATCH("/:id", h.patchOrder)
	orders.DELETE("/:id", h.deleteOrder)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "route not found", Code: codeRouteNotFound})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Code: codeMethodNotAllowed})
	})

	return r
}
