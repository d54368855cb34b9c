package routes

import (
	"time"

	apperrors "github.com/yashrajoria/payment-api/common/errors"
	"github.com/yashrajoria/payment-api/common/middleware"
	"github.com/yashrajoria/payment-api/controllers"
	awspkg "github.com/yashrajoria/payment-api/pkg/aws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestTimeout bounds every request, provider calls included.
const RequestTimeout = 30 * time.Second

// RouterOptions carries the cross-cutting pieces the engine is built with.
// Limiter and Metrics are optional.
type RouterOptions struct {
	Logger         *zap.Logger
	Debug          bool
	AllowedOrigins []string
	Limiter        *middleware.RateLimiter
	Metrics        *awspkg.MetricsClient
	ServiceName    string
}

// NewRouter builds the gin engine with the middleware chain and every route
// registered.
func NewRouter(pc *controllers.PaymentController, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(
		apperrors.Recovery(opts.Debug, opts.Logger),
		middleware.RequestLogger(opts.Logger),
		middleware.SecurityHeaders(),
		middleware.CORS(opts.AllowedOrigins),
	)
	if opts.Limiter != nil {
		r.Use(middleware.RateLimitMiddleware(opts.Limiter))
	}
	r.Use(
		middleware.MetricsMiddleware(opts.Metrics, opts.ServiceName),
		middleware.Timeout(RequestTimeout),
		apperrors.ErrorMiddleware(opts.Debug, opts.Logger),
	)

	r.GET("/health", controllers.Health)
	RegisterPaymentRoutes(r, pc)
	r.NoRoute(controllers.NotFound)
	return r
}

func RegisterPaymentRoutes(r *gin.Engine, pc *controllers.PaymentController) {
	payments := r.Group("/payments")
	payments.POST("/intent", pc.CreatePaymentIntent)
	payments.GET("/intent/:id", pc.GetPaymentIntent)
	payments.POST("/confirm", pc.ConfirmPayment)
	payments.POST("/refund", pc.CreateRefund)
	payments.GET("/intents", pc.ListPaymentIntents)
}
