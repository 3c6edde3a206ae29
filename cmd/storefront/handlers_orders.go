package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/order"
)

// @Summary   Place an order
// @Tags      orders
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     body body order.CreateOrderRequest true "cart and shipping"
// @Success   201 {object} order.CreateOrderResponse
// @Failure   400 {object} map[string]string
// @Failure   404 {object} map[string]string
// @Failure   409 {object} map[string]any
// @Failure   500 {object} map[string]string
// @Router    /api/orders [post]
func createOrderHandler(svc checkout) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		o, err := svc.Create(c.Request.Context(), httpx.UserID(c), req.Lines(), req.Shipping())
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order.CreateOrderResponse{OrderID: o.ID, Total: o.Total, Order: o})
	}
}

// @Summary   The caller's orders, newest first
// @Tags      orders
// @Produce   json
// @Security  BearerAuth
// @Success   200 {array} order.Order
// @Router    /api/orders [get]
func listOrdersHandler(svc checkout) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.List(c.Request.Context(), httpx.UserID(c))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary   One of the caller's orders
// @Tags      orders
// @Produce   json
// @Security  BearerAuth
// @Param     id path string true "order id"
// @Success   200 {object} order.Order
// @Failure   404 {object} map[string]string
// @Router    /api/orders/{id} [get]
func getOrderHandler(svc checkout) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Get(c.Request.Context(), c.Param("id"), httpx.UserID(c))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}
