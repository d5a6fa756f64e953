package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/MikeMC777/marketplace-ordenes/docs"
	"github.com/MikeMC777/marketplace-ordenes/internal/cart"
	"github.com/MikeMC777/marketplace-ordenes/internal/coupon"
	"github.com/MikeMC777/marketplace-ordenes/internal/guard"
	"github.com/MikeMC777/marketplace-ordenes/internal/httpx"
	"github.com/MikeMC777/marketplace-ordenes/internal/inventory"
	"github.com/MikeMC777/marketplace-ordenes/internal/order"
	"github.com/MikeMC777/marketplace-ordenes/internal/session"
	"github.com/MikeMC777/marketplace-ordenes/internal/user"
)

// app bundles the services the handlers need.
type app struct {
	users    *user.Service
	sessions *session.Store
	ledger   *inventory.Ledger
	carts    cart.Store
	coupons  *coupon.Service
	orders   *order.Engine
}

func newRouter(a *app) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := guard.Authenticate(a.sessions)
	id := httpx.ValidID("id")
	api := r.Group("/api")

	users := api.Group("/users")
	users.POST("/signup", signupHandler(a.users))
	users.POST("/login", loginHandler(a.users, a.sessions))
	users.POST("/logout", auth, logoutHandler(a.sessions))
	users.POST("/logout-all", auth, logoutAllHandler(a.sessions))
	users.GET("/refresh-jwt", auth, refreshHandler(a.sessions))
	users.GET("/sessions", auth, sessionsHandler(a.sessions))
	users.POST("/:id/ban", auth, guard.Require(guard.AdminOnly), id, banHandler(a.users, true))
	users.POST("/:id/unban", auth, guard.Require(guard.AdminOnly), id, banHandler(a.users, false))
	users.POST("/changeAccountType/:id", auth, guard.Require(guard.AdminOnly), id, changeRoleHandler(a.users))

	carts := api.Group("/cart", auth, guard.Require(guard.ClientOnly))
	carts.GET("", getCartHandler(a.carts))
	carts.POST("/items", addToCartHandler(a.carts, a.ledger))
	carts.DELETE("", clearCartHandler(a.carts))

	items := api.Group("/items")
	items.POST("", auth, guard.Require(guard.VendorOnly), createItemHandler(a.ledger))
	items.GET("/:id", id, getItemHandler(a.ledger))
	items.POST("/:id/restock", auth, guard.Require(guard.VendorOnly), id, restockHandler(a.ledger))
	items.GET("/:id/movements", auth, guard.Require(guard.VendorOrAdmin), id, movementsHandler(a.ledger))

	api.POST("/coupons", auth, guard.Require(guard.AdminOnly), createCouponHandler(a.coupons))

	fulfil := guard.Require(guard.VendorOrAdmin)
	orders := api.Group("/orders", auth)
	orders.GET("", listOrdersHandler(a.orders))
	orders.POST("/checkout", guard.Require(guard.ClientOnly), checkoutHandler(a.orders))
	orders.GET("/:id", id, getOrderHandler(a.orders))
	orders.POST("/:id/cancel", id, cancelOrderHandler(a.orders))
	orders.PATCH("/:id/status", fulfil, id, editStatusHandler(a.orders))
	orders.POST("/:id/confirm", fulfil, id, confirmOrderHandler(a.orders))
	orders.POST("/:id/shipped", fulfil, id, shippedHandler(a.orders))

	return r
}
