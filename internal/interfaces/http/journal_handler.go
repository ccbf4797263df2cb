package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/posting"
)

// JournalHandler asientos del libro mayor.
type JournalHandler struct {
	engine *posting.Engine
}

// NewJournalHandler construye el handler.
func NewJournalHandler(engine *posting.Engine) *JournalHandler {
	return &JournalHandler{engine: engine}
}

// Create godoc
// @Summary      Contabilizar asiento
// @Tags         gl
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-Tenant-ID      header  string  false  "Tenant"
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        body  body  dto.CreateJournalRequest  true  "Asiento"
// @Success      201   {object}  dto.SuccessResponse{data=dto.JournalEntryResponse}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/v1/gl/journal-entries [post]
func (h *JournalHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateJournalRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	draft, err := posting.DraftFromRequest(in)
	if err != nil {
		return err
	}
	pending := pendingFor(c, fiber.StatusCreated)
	out, err := h.engine.PostJournal(c.Context(), Scope(c), draft, pending)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, out, pending)
}

// Reverse godoc
// @Summary      Reversar asiento
// @Tags         gl
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string  true  "ID del asiento"
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        body  body  dto.ReverseJournalRequest  true  "Motivo y aprobadores"
// @Success      201   {object}  dto.SuccessResponse{data=dto.JournalEntryResponse}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/v1/gl/journal-entries/{id}/reverse [post]
func (h *JournalHandler) Reverse(c *fiber.Ctx) error {
	var in dto.ReverseJournalRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	rev, err := posting.ReverseInputFromRequest(in)
	if err != nil {
		return err
	}
	pending := pendingFor(c, fiber.StatusCreated)
	out, err := h.engine.ReverseJournal(c.Context(), Scope(c), c.Params("id"), rev, pending)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, out, pending)
}

// GetByID godoc
// @Summary      Obtener asiento
// @Tags         gl
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del asiento"
// @Success      200  {object}  dto.SuccessResponse{data=dto.JournalEntryResponse}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/gl/journal-entries/{id} [get]
func (h *JournalHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.engine.GetJournal(c.Context(), Scope(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.Success(out))
}

// List godoc
// @Summary      Listar asientos
// @Tags         gl
// @Produce      json
// @Security     BearerAuth
// @Param        page        query  int     false  "Página"  default(1)
// @Param        page_size   query  int     false  "Tamaño"  default(20)
// @Param        sort_by     query  string  false  "entry_date, entry_number, created_at, total_debit"
// @Param        sort_order  query  string  false  "asc | desc"
// @Success      200  {object}  dto.SuccessResponse{data=[]dto.JournalEntryResponse}
// @Router       /api/v1/gl/journal-entries [get]
func (h *JournalHandler) List(c *fiber.Ctx) error {
	q, err := pageQuery(c, posting.JournalSortFields)
	if err != nil {
		return err
	}
	items, total, err := h.engine.ListJournals(c.Context(), Scope(c), q)
	if err != nil {
		return err
	}
	return respondPage(c, items, total, q)
}
