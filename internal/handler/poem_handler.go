package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-poem-api/internal/dto"
	"github.com/noah-isme/gema-poem-api/internal/service"
	"github.com/noah-isme/gema-poem-api/internal/utils"
)

// PoemHandler serves saved poems and their evaluations.
type PoemHandler struct {
	service service.PoemService
	logger  zerolog.Logger
}

// NewPoemHandler constructs a poem handler.
func NewPoemHandler(service service.PoemService, logger zerolog.Logger) *PoemHandler {
	return &PoemHandler{
		service: service,
		logger:  logger.With().Str("component", "poem_handler").Logger(),
	}
}

// Register wires poem routes.
func (h *PoemHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *PoemHandler) list(c *fiber.Ctx) error {
	var query dto.PoemListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	result, err := h.service.List(requestContext(c), query)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, result.Items, "poems retrieved", fiber.Map{
		"count":     len(result.Items),
		"cache_hit": result.CacheHit,
	})
}

func (h *PoemHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	poem, err := h.service.Get(requestContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "poem retrieved", poem)
}

func (h *PoemHandler) create(c *fiber.Ctx) error {
	var payload dto.PoemRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Create(requestContext(c), payload, providerPreference(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return h.sendSaved(c, fiber.StatusCreated, "poem saved", result)
}

func (h *PoemHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.PoemRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Update(requestContext(c), id, payload, providerPreference(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return h.sendSaved(c, fiber.StatusOK, "poem updated", result)
}

func (h *PoemHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(requestContext(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "poem deleted", fiber.Map{"id": id})
}

func (h *PoemHandler) sendSaved(c *fiber.Ctx, status int, message string, result dto.PoemSaveResponse) error {
	if result.Degraded {
		requestLogger(h.logger, c).Warn().Uint("poem_id", result.Poem.ID).Msg("poem saved without evaluation")
		return utils.SendDegraded(c, status, degradedReason, result.Poem.Status, result, "the poem was saved but could not be evaluated")
	}

	return utils.SendSuccessWithStatus(c, status, message, result)
}

func (h *PoemHandler) handleError(c *fiber.Ctx, err error) error {
	if handled, sendErr := badRequest(c, err); handled {
		return sendErr
	}

	if errors.Is(err, service.ErrPoemNotFound) {
		return utils.SendError(c, fiber.StatusNotFound, "poem not found")
	}

	requestLogger(h.logger, c).Error().Err(err).Msg("poem request failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
