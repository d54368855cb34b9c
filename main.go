package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	applogger "github.com/yashrajoria/payment-api/common/logger"
	"github.com/yashrajoria/payment-api/common/middleware"
	"github.com/yashrajoria/payment-api/config"
	"github.com/yashrajoria/payment-api/controllers"
	"github.com/yashrajoria/payment-api/kafka"
	aws_pkg "github.com/yashrajoria/payment-api/pkg/aws"
	"github.com/yashrajoria/payment-api/providers"
	"github.com/yashrajoria/payment-api/routes"
	"github.com/yashrajoria/payment-api/services"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "payment-api"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("[PaymentAPI] failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// AWS is only needed for CloudWatch and the SNS sink.
	var (
		awsCfg sdkaws.Config
		awsErr = errors.New("aws not configured")
	)
	if cfg.CloudWatchEnabled || cfg.EventSink == config.EventSinkSNS {
		awsCfg, awsErr = aws_pkg.LoadAWSConfig(ctx)
	}

	var logSink io.Writer
	var cwErr error
	if cfg.CloudWatchEnabled && awsErr == nil {
		cw, err := aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, os.Getenv("CLOUDWATCH_LOG_GROUP"), serviceName)
		if err != nil {
			cwErr = err
		} else {
			logSink = cw
		}
	}

	logger, err := applogger.New(cfg.AppEnv, logSink)
	if err != nil {
		log.Fatalf("[PaymentAPI] failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.CloudWatchEnabled && awsErr != nil {
		logger.Warn("AWS config unavailable, CloudWatch disabled", zap.Error(awsErr))
	}
	if cwErr != nil {
		logger.Warn("CloudWatch Logs unavailable, logging to console only", zap.Error(cwErr))
	}

	var metrics *aws_pkg.MetricsClient
	if awsErr == nil {
		metrics = aws_pkg.NewMetricsClient(awsCfg, "PaymentAPI", cfg.CloudWatchEnabled)
	}

	publisher, closePublisher := buildPublisher(cfg, awsCfg, awsErr, logger)
	defer closePublisher()

	provider := providers.NewStripeProvider(cfg.StripeSecretKey, providers.StripeOptions{
		BaseURL: cfg.StripeAPIURL,
	}, logger)
	paymentService := services.NewPaymentService(provider, publisher, metrics, logger)
	paymentController := controllers.NewPaymentController(paymentService, controllers.NewRequestValidator())

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewPerMinuteLimiter(cfg.RateLimitPerMinute)
	go limiter.Run(ctx)

	r := routes.NewRouter(paymentController, routes.RouterOptions{
		Logger:         logger,
		Debug:          cfg.IsDevelopment(),
		AllowedOrigins: cfg.AllowedOrigins,
		Limiter:        limiter,
		Metrics:        metrics,
		ServiceName:    serviceName,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Payment API started",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
		zap.String("event_sink", cfg.EventSink),
	)
	<-ctx.Done()
	logger.Info("Shutting down payment API...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	logger.Info("Server exited cleanly")
}

// buildPublisher picks the event sink. A sink that cannot be built is
// logged and disabled; payments keep working without events.
func buildPublisher(cfg *config.Config, awsCfg sdkaws.Config, awsErr error, logger *zap.Logger) (services.EventPublisher, func()) {
	noop := func() {}

	switch cfg.EventSink {
	case config.EventSinkSNS:
		if awsErr != nil {
			logger.Warn("AWS config unavailable, SNS events disabled", zap.Error(awsErr))
			return nil, noop
		}
		return services.NewSNSEventPublisher(aws_pkg.NewSNSClient(awsCfg), cfg.PaymentSNSTopicARN), noop

	case config.EventSinkKafka:
		producer := kafka.NewPaymentEventProducer(cfg.KafkaBrokers, cfg.KafkaPaymentTopic)
		return producer, func() {
			if err := producer.Close(); err != nil {
				logger.Warn("Failed to close Kafka producer", zap.Error(err))
			}
		}
	}
	return nil, noop
}
