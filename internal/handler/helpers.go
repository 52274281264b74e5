package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-poem-api/internal/middleware"
	"github.com/noah-isme/gema-poem-api/internal/utils"
	"github.com/noah-isme/gema-poem-api/pkg/ai"
)

// ProviderHeader selects the evaluation provider for a single request.
const ProviderHeader = "x-ai-provider"

const degradedReason = "provider_failed"

func providerPreference(c *fiber.Ctx) string {
	return strings.ToLower(strings.TrimSpace(c.Get(ProviderHeader)))
}

func requestContext(c *fiber.Ctx) context.Context {
	return middleware.ContextWithCorrelation(c.UserContext(), middleware.GetCorrelationID(c))
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// badRequest maps the errors shared by every poem endpoint to a 400.
func badRequest(c *fiber.Ctx, err error) (bool, error) {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, ai.ErrPrecondition):
		return true, utils.SendError(c, fiber.StatusBadRequest, ai.ErrPrecondition.Error())
	case errors.As(err, &validationErrors):
		return true, utils.Fail(c, fiber.StatusBadRequest, "invalid payload", validationDetails(validationErrors))
	}
	return false, nil
}

func validationDetails(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		details[strings.ToLower(fieldErr.Field())] = fieldErr.Tag()
	}
	return details
}
