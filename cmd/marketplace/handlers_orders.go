package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/marketplace-ordenes/internal/guard"
	"github.com/MikeMC777/marketplace-ordenes/internal/httpx"
	"github.com/MikeMC777/marketplace-ordenes/internal/order"
)

// @Summary List orders visible to the caller
// @Tags orders
// @Produce json
// @Param page  query int false "page"  default(1)
// @Param limit query int false "limit" default(10)
// @Security BearerAuth
// @Router /orders [get]
func listOrdersHandler(eng *order.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q order.ListQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			httpx.WriteError(c, httpx.BindError(err))
			return
		}
		id, _ := guard.Identity(c)
		res, err := eng.GetOrders(c.Request.Context(), id, q)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"length":           len(res.Orders),
			"total":            res.Total,
			"remaining":        res.Remaining,
			"paginationResult": res.Pagination,
			"orders":           res.Orders,
		})
	}
}

func getOrderHandler(eng *order.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := guard.Identity(c)
		o, err := eng.GetOrder(c.Request.Context(), id, c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": o})
	}
}

// @Summary Place an order from the caller's cart
// @Tags orders
// @Accept json
// @Produce json
// @Param payload body order.CheckoutRequest true "checkout"
// @Success 201 {object} order.Order
// @Failure 409 {object} map[string]any "insufficient stock"
// @Security BearerAuth
// @Router /orders/checkout [post]
func checkoutHandler(eng *order.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.CheckoutRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.WriteError(c, httpx.BindError(err))
			return
		}
		id, _ := guard.Identity(c)
		o, err := eng.Checkout(c.Request.Context(), id, in)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"order": o, "create": true})
	}
}

func cancelOrderHandler(eng *order.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := guard.Identity(c)
		o, err := eng.CancelOrder(c.Request.Context(), id, c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"delete": true, "order": o})
	}
}

func editStatusHandler(eng *order.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.EditStatusRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.WriteError(c, httpx.BindError(err))
			return
		}
		id, _ := guard.Identity(c)
		o, err := eng.EditOrderStatus(c.Request.Context(), id, c.Param("id"), order.Status(in.Status))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"update": true, "order": o})
	}
}

func confirmOrderHandler(eng *order.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := guard.Identity(c)
		o, err := eng.ConfirmOrder(c.Request.Context(), id, c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": o, "update": true, "message": "Order sent for shipping"})
	}
}

func shippedHandler(eng *order.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := guard.Identity(c)
		o, err := eng.OrderShipped(c.Request.Context(), id, c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": o, "update": true, "message": "Order shipped"})
	}
}
