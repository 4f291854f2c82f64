// README: HTTP router registration.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shipquote/internal/http/handlers"
	"shipquote/internal/http/middleware"
	"shipquote/internal/modules/booking"
	"shipquote/internal/modules/pricing"
	"shipquote/internal/modules/quote"
	"shipquote/internal/modules/ratecard"
	"shipquote/internal/modules/tenant"
)

type RouterDeps struct {
	Builder  *quote.Builder
	Sessions *quote.PGStore
	Resolver *booking.Resolver
	Pricer   *pricing.Service
	Cards    *ratecard.Store
	Tenants  *tenant.Store
}

func NewRouter(env string, deps RouterDeps) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.Tenant())

	quoteHandler := handlers.NewQuoteHandler(deps.Builder, deps.Sessions, deps.Resolver)
	api.POST("/quotes", quoteHandler.Create)
	api.GET("/quotes/:id", quoteHandler.Get)
	api.POST("/quotes/:id/book", quoteHandler.Book)

	priceHandler := handlers.NewPriceHandler(deps.Pricer)
	api.POST("/prices/evaluate", priceHandler.Evaluate)

	cardHandler := handlers.NewRateCardHandler(deps.Cards, deps.Tenants)
	api.POST("/ratecards", cardHandler.Create)
	api.GET("/ratecards", cardHandler.List)
	api.GET("/ratecards/:id", cardHandler.Get)
	api.DELETE("/ratecards/:id", cardHandler.Delete)
	api.PUT("/tenants/default-ratecard", cardHandler.SetDefault)

	return r
}
