package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/marketplace-ordenes/internal/apperr"
	"github.com/MikeMC777/marketplace-ordenes/internal/cart"
	"github.com/MikeMC777/marketplace-ordenes/internal/coupon"
	"github.com/MikeMC777/marketplace-ordenes/internal/guard"
	"github.com/MikeMC777/marketplace-ordenes/internal/httpx"
	"github.com/MikeMC777/marketplace-ordenes/internal/inventory"
	"github.com/MikeMC777/marketplace-ordenes/internal/user"
)

// cartLineRequest adds (or with a negative quantity, removes) units of an
// item in the caller's cart.
type cartLineRequest struct {
	ItemID   string `json:"item_id"  binding:"required,uuid"`
	Quantity int    `json:"quantity" binding:"required,ne=0"`
}

// swagger:model CreateCouponRequest
type createCouponRequest struct {
	Code        string              `json:"code"         binding:"required"`
	Type        coupon.Type         `json:"type"         binding:"required,oneof=percentage fixed"`
	Value       decimal.Decimal     `json:"value"        swaggertype:"string"`
	MinAmount   decimal.Decimal     `json:"min_amount"   swaggertype:"string"`
	MaxDiscount decimal.NullDecimal `json:"max_discount" swaggertype:"string"`
	StartsAt    *time.Time          `json:"starts_at"`
	ExpiresAt   *time.Time          `json:"expires_at"`
}

func renderCart(c *gin.Context, carts cart.Store, userID string) {
	lines, err := carts.Get(c.Request.Context(), userID)
	if err != nil {
		httpx.WriteError(c, apperr.Wrap(apperr.Internal, "get cart", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"length": len(lines), "items": lines})
}

func getCartHandler(carts cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := guard.Identity(c)
		renderCart(c, carts, id.UserID)
	}
}

func addToCartHandler(carts cart.Store, ledger *inventory.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in cartLineRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.WriteError(c, httpx.BindError(err))
			return
		}
		if _, err := ledger.Get(c.Request.Context(), in.ItemID); err != nil {
			httpx.WriteError(c, err)
			return
		}
		id, _ := guard.Identity(c)
		if err := carts.Add(c.Request.Context(), id.UserID, in.ItemID, in.Quantity); err != nil {
			httpx.WriteError(c, apperr.Wrap(apperr.Internal, "update cart", err))
			return
		}
		renderCart(c, carts, id.UserID)
	}
}

func clearCartHandler(carts cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := guard.Identity(c)
		if err := carts.Clear(c.Request.Context(), id.UserID); err != nil {
			httpx.WriteError(c, apperr.Wrap(apperr.Internal, "clear cart", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"delete": true})
	}
}

// @Summary Publish an item
// @Tags items
// @Accept json
// @Produce json
// @Param payload body inventory.CreateItemRequest true "item"
// @Success 201 {object} inventory.Item
// @Security BearerAuth
// @Router /items [post]
func createItemHandler(ledger *inventory.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in inventory.CreateItemRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.WriteError(c, httpx.BindError(err))
			return
		}
		id, _ := guard.Identity(c)
		it, err := ledger.AddItem(c.Request.Context(), id.UserID, in)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"item": it, "create": true})
	}
}

func getItemHandler(ledger *inventory.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		it, err := ledger.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"item": it})
	}
}

func restockHandler(ledger *inventory.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in inventory.RestockRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.WriteError(c, httpx.BindError(err))
			return
		}
		id, _ := guard.Identity(c)
		it, err := ledger.Restock(c.Request.Context(), id.UserID, c.Param("id"), in.Quantity)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"item": it, "update": true})
	}
}

// movementsHandler lists the stock history of an item. Vendors only see
// their own items.
func movementsHandler(ledger *inventory.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		it, err := ledger.Get(ctx, c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		id, _ := guard.Identity(c)
		if id.Role == user.RoleVendor {
			if err := guard.CheckVendor(id, []string{it.VendorID}, false); err != nil {
				httpx.WriteError(c, err)
				return
			}
		}
		movs, err := ledger.Movements(ctx, it.ID)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"length": len(movs), "movements": movs})
	}
}

func createCouponHandler(coupons *coupon.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in createCouponRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.WriteError(c, httpx.BindError(err))
			return
		}
		cp := coupon.Coupon{
			Code:        in.Code,
			Type:        in.Type,
			Value:       in.Value,
			MinAmount:   in.MinAmount,
			MaxDiscount: in.MaxDiscount,
			Active:      true,
		}
		if in.StartsAt != nil {
			cp.StartsAt = in.StartsAt.UTC()
		}
		if in.ExpiresAt != nil {
			cp.ExpiresAt = in.ExpiresAt.UTC()
		}
		created, err := coupons.Create(c.Request.Context(), cp)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"coupon": created, "create": true})
	}
}
