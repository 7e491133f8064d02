package handler

import (
	"errors"

	"github.com/codax69/sever-main-sub001/config"
	autherror "github.com/codax69/sever-main-sub001/internal/errors"
	"github.com/codax69/sever-main-sub001/pkg/response"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

func (h *AuthHandler) writeError(c *fiber.Ctx, err error) error {
	return writeError(c, h.cfg, h.logger, err)
}

// ErrorHandler is the fiber ErrorHandler. It covers errors returned from
// handlers and middleware, including recovered panics.
func ErrorHandler(cfg *config.Config, logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return response.Error(c, fiberErr.Code, fiberErr.Message)
		}
		return writeError(c, cfg, logger, err)
	}
}

// writeError renders err as an envelope. AppErrors keep their status and
// message. Anything else is a 500 whose text is hidden in production.
func writeError(c *fiber.Ctx, cfg *config.Config, logger *zap.Logger, err error) error {
	if appErr, ok := autherror.As(err); ok {
		if appErr.StatusCode >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", utils.CopyString(c.Method())),
				zap.String("path", utils.CopyString(c.Path())),
				zap.Int("status", appErr.StatusCode),
				zap.Error(err),
			)
		}
		return response.Error(c, appErr.StatusCode, appErr.Message)
	}

	logger.Error("unhandled error",
		zap.String("method", utils.CopyString(c.Method())),
		zap.String("path", utils.CopyString(c.Path())),
		zap.Error(err),
	)

	message := err.Error()
	if cfg == nil || cfg.IsProduction() {
		message = autherror.ErrInternal.Message
	}
	return response.Error(c, fiber.StatusInternalServerError, message)
}
