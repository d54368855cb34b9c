package errors

import (
	goerrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	outageMessage     = "An error occurred with the payment service. Please try again later."
	unexpectedMessage = "An unexpected error occurred"
)

// Translate maps err to an HTTP status and JSON body. With debug set, the
// body of an unhandled failure carries the full error detail.
func Translate(err error, debug bool) (int, gin.H) {
	var (
		pe  *ProviderError
		ve  *ValidationError
		app *Error
	)

	switch {
	case goerrors.As(err, &ve):
		return http.StatusBadRequest, gin.H{
			"error":   "Validation Error",
			"message": ve.Error(),
			"errors":  ve.Fields,
		}

	case goerrors.As(err, &pe) && pe.Kind == KindCard:
		return http.StatusBadRequest, gin.H{
			"error":   "Card Error",
			"message": pe.Message,
			"code":    pe.Code,
		}

	case goerrors.As(err, &pe) && pe.Kind == KindInvalidRequest:
		return http.StatusBadRequest, gin.H{
			"error":   "Invalid Request",
			"message": pe.Message,
			"param":   pe.Param,
		}

	case goerrors.As(err, &pe) && pe.Kind == KindAPI:
		return http.StatusInternalServerError, gin.H{
			"error":   "Payment Service Error",
			"message": outageMessage,
		}
	}

	status := http.StatusInternalServerError
	title := "Internal Server Error"
	switch {
	case goerrors.As(err, &app):
		status = app.Code
		title = app.Message
	case goerrors.As(err, &pe):
		if pe.StatusCode >= http.StatusBadRequest {
			status = pe.StatusCode
		}
		if pe.Message != "" {
			title = pe.Message
		}
	}

	message := unexpectedMessage
	if debug {
		message = fmt.Sprintf("%+v", err)
	}
	return status, gin.H{"error": title, "message": message}
}

// ErrorMiddleware writes the last error attached to the gin context through
// Translate. Handlers record failures with c.Error and return.
func ErrorMiddleware(debug bool, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, body := Translate(err, debug)
		logError(logger, c, status, err)
		c.AbortWithStatusJSON(status, body)
	}
}

// Recovery turns a panic into a 500 written through Translate.
func Recovery(debug bool, logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err := Wrap(ErrInternalServer, fmt.Errorf("panic: %v", recovered))
		status, body := Translate(err, debug)
		logError(logger, c, status, err)
		c.AbortWithStatusJSON(status, body)
	})
}

func logError(logger *zap.Logger, c *gin.Context, status int, err error) {
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if rid := c.GetString("request_id"); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
		return
	}
	logger.Warn("request rejected", fields...)
}
