package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"

	"checkout-core/internal/handler/api"
	"checkout-core/internal/handler/middleware"
	"checkout-core/internal/pkg/config"
	"checkout-core/internal/pkg/metrics"
)

const webhookPath = "/api/payment-webhook"

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type RouterParams struct {
	fx.In

	Engine              *gin.Engine
	Config              config.Config
	Logger              *slog.Logger
	Metrics             *metrics.Metrics
	AuthMiddleware      *middleware.AuthMiddleware
	CheckoutHandler     *api.CheckoutHandler
	OrderHandler        *api.OrderHandler
	CartHandler         *api.CartHandler
	CancellationHandler *api.CancellationHandler
	WebhookHandler      *api.WebhookHandler
}

func NewRouter(p RouterParams) {
	setupMiddleware(p.Engine, p.Config, p.Logger, p.Metrics)
	setupRoutes(p)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *slog.Logger, m *metrics.Metrics) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery(logger))
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS, logger))
	engine.Use(middleware.LoggingMiddleware(logger))
	engine.Use(middleware.MetricsMiddleware(m))
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{webhookPath})))
	engine.Use(middleware.ErrorHandler(logger))
}

func setupRoutes(p RouterParams) {
	engine := p.Engine
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(p.Metrics.Handler()))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Signed by the provider, never by a user token.
	engine.POST(webhookPath, p.WebhookHandler.Handle)

	apiGroup := engine.Group("/api")
	apiGroup.Use(p.AuthMiddleware.RequireAuth())
	{
		addRoutes(apiGroup, []route{
			{Method: http.MethodPost, Path: "/checkout", Handler: p.CheckoutHandler.Checkout},
		})

		orders := apiGroup.Group("/orders")
		addRoutes(orders, []route{
			{Method: http.MethodGet, Path: "", Handler: p.OrderHandler.List},
			{Method: http.MethodPost, Path: "/preview-total", Handler: p.OrderHandler.PreviewTotal},
			{Method: http.MethodGet, Path: "/:id/track", Handler: p.OrderHandler.Track},
			{Method: http.MethodPost, Path: "/:id/reorder", Handler: p.OrderHandler.Reorder},
			{Method: http.MethodPost, Path: "/:id/cancel/request-otp", Handler: p.CancellationHandler.RequestOTP},
			{Method: http.MethodPost, Path: "/:id/cancel/confirm-otp", Handler: p.CancellationHandler.ConfirmOTP},
		})

		cart := apiGroup.Group("/cart")
		addRoutes(cart, []route{
			{Method: http.MethodGet, Path: "", Handler: p.CartHandler.Get},
			{Method: http.MethodPost, Path: "/items", Handler: p.CartHandler.AddItem},
			{Method: http.MethodDelete, Path: "/items/:productId", Handler: p.CartHandler.RemoveItem},
			{Method: http.MethodPut, Path: "/coupon", Handler: p.CartHandler.ApplyCoupon},
			{Method: http.MethodDelete, Path: "/coupon", Handler: p.CartHandler.RemoveCoupon},
		})
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
