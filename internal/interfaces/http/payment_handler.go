package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/usecase"
)

// PaymentHandler pagos a proveedores (AP) y recaudos de clientes (AR).
type PaymentHandler struct {
	payments *usecase.PaymentUseCase
	receipts *usecase.ReceiptUseCase
}

// NewPaymentHandler construye el handler.
func NewPaymentHandler(payments *usecase.PaymentUseCase, receipts *usecase.ReceiptUseCase) *PaymentHandler {
	return &PaymentHandler{payments: payments, receipts: receipts}
}

// CreatePayment godoc
// @Summary      Registrar pago a proveedor
// @Description  Crea el pago y contabiliza su asiento (débito CxP, crédito caja) en una sola transacción.
// @Tags         ap
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header  string  false  "Clave de idempotencia"
// @Param        body  body  dto.CreatePaymentRequest  true  "Pago"
// @Success      201   {object}  dto.SuccessResponse{data=dto.PaymentResponse}
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/v1/ap/payments [post]
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	var in dto.CreatePaymentRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	pending := pendingFor(c, fiber.StatusCreated)
	out, err := h.payments.Create(c.Context(), Scope(c), in, pending)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, out, pending)
}

// ListPayments godoc
// @Summary      Listar pagos
// @Tags         ap
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.SuccessResponse{data=[]dto.PaymentResponse}
// @Router       /api/v1/ap/payments [get]
func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	q, err := pageQuery(c, usecase.PaymentSortFields)
	if err != nil {
		return err
	}
	items, total, err := h.payments.List(c.Context(), Scope(c), q)
	if err != nil {
		return err
	}
	return respondPage(c, items, total, q)
}

// CreateReceipt godoc
// @Summary      Registrar recaudo de cliente
// @Tags         ar
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateReceiptRequest  true  "Recaudo"
// @Success      201   {object}  dto.SuccessResponse{data=dto.ReceiptResponse}
// @Router       /api/v1/ar/receipts [post]
func (h *PaymentHandler) CreateReceipt(c *fiber.Ctx) error {
	var in dto.CreateReceiptRequest
	if err := parseBody(c, &in); err != nil {
		return err
	}
	pending := pendingFor(c, fiber.StatusCreated)
	out, err := h.receipts.Create(c.Context(), Scope(c), in, pending)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, out, pending)
}

// ListReceipts godoc
// @Summary      Listar recaudos
// @Tags         ar
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.SuccessResponse{data=[]dto.ReceiptResponse}
// @Router       /api/v1/ar/receipts [get]
func (h *PaymentHandler) ListReceipts(c *fiber.Ctx) error {
	q, err := pageQuery(c, usecase.ReceiptSortFields)
	if err != nil {
		return err
	}
	items, total, err := h.receipts.List(c.Context(), Scope(c), q)
	if err != nil {
		return err
	}
	return respondPage(c, items, total, q)
}
