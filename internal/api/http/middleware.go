package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/users-service/internal/observability"
	"github.com/spec-kit/users-service/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and
// logging. The request logger sits outside the error handler so the status
// it observes is the one actually written, failures included.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware is the single process-wide error handler: every
// failure is mapped to {errorCode, message} with the error's carried HTTP
// status, defaulting to 500. Handlers never translate errors themselves.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = util.NewInternalError(nil)
			}
			if err != nil {
				appErr := translate(err)
				metrics.RecordError(c.Path(), c.Method(), appErr.ErrorCode)
				if appErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(appErr))
				}
				c.Status(appErr.HTTPStatus)
				_ = c.JSON(fiber.Map{
					"errorCode": appErr.ErrorCode,
					"message":   appErr.Message,
				})
				err = nil
			}
		}()
		return c.Next()
	}
}

func translate(err error) *util.AppError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return util.NewAppError(fiberErr.Code, fiberErr.Code, fiberErr.Message)
	}
	return util.ToAppError(err)
}
