package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/middleware"
)

type Handlers struct {
	Auth       *AuthHandler
	Cart       *CartHandler
	Order      *OrderHandler
	Coupon     *CouponHandler
	Return     *ReturnHandler
	Settlement *SettlementHandler
	Webhook    *WebhookHandler
}

// NewRouter wires every route. Auth resolves identity for all routes;
// user and admin requirements are enforced per group. Checkout and
// payment mutations sit behind the strict rate tier.
func NewRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestIDMiddleware())
	r.Use(logger.LoggingMiddleware())
	r.Use(middleware.AuthMiddleware())
	r.Use(metricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Provider callbacks authenticate via signature, not user tokens.
	r.POST("/webhooks/payment", h.Webhook.HandlePaymentCallback)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware("general"))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
	}

	user := api.Group("")
	user.Use(middleware.RequireUser())
	{
		strict := user.Group("")
		strict.Use(middleware.RateLimitMiddleware("strict"))
		{
			strict.POST("/orders", h.Order.CreateOrder)
			strict.POST("/orders/:id/cancel", h.Order.CancelOrder)
			strict.POST("/returns", h.Return.CreateReturn)
		}

		general := user.Group("")
		general.Use(middleware.RateLimitMiddleware("general"))
		{
			general.GET("/cart", h.Cart.ListItems)
			general.POST("/cart/items", h.Cart.AddItem)
			general.DELETE("/cart/items/:id", h.Cart.RemoveItem)
			general.GET("/orders", h.Order.ListOrders)
			general.GET("/orders/:id", h.Order.GetOrder)
			general.POST("/orders/:id/confirm", h.Order.ConfirmOrder)
			general.GET("/returns/:id", h.Return.GetReturn)
			general.POST("/coupons/validate", h.Coupon.Validate)
			general.POST("/coupons/claim", h.Coupon.Claim)
		}
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireUser(), middleware.RequireAdmin())
	{
		admin.POST("/orders/:id/complete", h.Order.CompletePayment)
		admin.PATCH("/orders/:id/status", h.Order.UpdateStatus)
		admin.PATCH("/orders/:id/tracking", h.Order.UpdateTracking)
		admin.POST("/orders/:id/cancel", h.Order.CancelOrder)

		admin.POST("/returns/:id/approve", h.Return.Approve)
		admin.POST("/returns/:id/reject", h.Return.Reject)
		admin.POST("/returns/:id/complete", h.Return.Complete)

		admin.POST("/settlements/generate", h.Settlement.Generate)
		admin.GET("/settlements/:id", h.Settlement.Get)
		admin.POST("/settlements/:id/approve", h.Settlement.Approve)
		admin.POST("/settlements/:id/pay", h.Settlement.MarkPaid)
		admin.POST("/settlements/:id/cancel", h.Settlement.Cancel)
		admin.DELETE("/settlements/:id", h.Settlement.Delete)

		admin.GET("/stats", statsHandler)
	}

	return r
}
