package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-poem-api/internal/dto"
	"github.com/noah-isme/gema-poem-api/internal/service"
	"github.com/noah-isme/gema-poem-api/internal/utils"
)

// EvaluationHandler exposes one-shot evaluations that are not persisted.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler constructs an evaluation handler.
func NewEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register wires evaluation routes.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Post("/evaluate", h.evaluate)
	router.Post("/titles", h.titles)
}

func (h *EvaluationHandler) evaluate(c *fiber.Ctx) error {
	var payload dto.PoemRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Evaluate(requestContext(c), payload, providerPreference(c))
	if err != nil {
		return h.handleError(c, err)
	}

	if result.Degraded {
		requestLogger(h.logger, c).Warn().Str("provider", result.Provider).Msg("evaluation degraded")
		return utils.SendDegraded(c, fiber.StatusOK, degradedReason, "evaluation unavailable", result.Evaluation, result.Warning)
	}

	return utils.SendSuccess(c, "poem evaluated", result.Evaluation)
}

func (h *EvaluationHandler) titles(c *fiber.Ctx) error {
	var payload dto.PoemRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.SuggestTitles(requestContext(c), payload, providerPreference(c))
	if err != nil {
		return h.handleError(c, err)
	}

	if result.Degraded {
		requestLogger(h.logger, c).Warn().Str("provider", result.Provider).Msg("title suggestions degraded")
		return utils.SendDegraded(c, fiber.StatusOK, degradedReason, "title suggestions unavailable", result.Titles, result.Warning)
	}

	return utils.SendSuccess(c, "titles suggested", result.Titles)
}

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	if handled, sendErr := badRequest(c, err); handled {
		return sendErr
	}

	requestLogger(h.logger, c).Error().Err(err).Msg("evaluation failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
