package domain

import (
	"errors"
	"maps"
)

// Code identifica de forma estable el tipo de error (se expone como error_code).
type Code string

// Códigos de error expuestos al cliente.
const (
	CodeTenantRequired          Code = "TENANT_REQUIRED"
	CodeTenantInvalid           Code = "TENANT_INVALID"
	CodeAuthInvalidCredentials  Code = "AUTH_INVALID_CREDENTIALS"
	CodeAuthTokenExpired        Code = "AUTH_TOKEN_EXPIRED"
	CodeAuthTokenRevoked        Code = "AUTH_TOKEN_REVOKED"
	CodeAuthTokenMalformed      Code = "AUTH_TOKEN_MALFORMED"
	CodeAuthTokenMissing        Code = "AUTH_TOKEN_MISSING"
	CodeRefreshTokenReuse       Code = "REFRESH_TOKEN_REUSE"
	CodeForbidden               Code = "FORBIDDEN"
	CodeIdempotencyConflict     Code = "IDEMPOTENCY_CONFLICT"
	CodePostingUnbalanced       Code = "POSTING_UNBALANCED"
	CodePostingInvalidAccount   Code = "POSTING_INVALID_ACCOUNT"
	CodePostingApprovalRequired Code = "POSTING_APPROVAL_REQUIRED"
	CodePostingNotReversible    Code = "POSTING_NOT_REVERSIBLE"
	CodeValidation              Code = "VALIDATION_ERROR"
	CodeNotFound                Code = "NOT_FOUND"
	CodeConflict                Code = "CONFLICT"
	CodeRateLimited             Code = "RATE_LIMITED"
	CodeInternal                Code = "INTERNAL_ERROR"
)

// Error es el error de dominio etiquetado por Code. Dos errores son iguales para errors.Is
// si comparten Code, de modo que los centinelas sirven para comparar valores derivados.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is compara por Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New construye un error de dominio.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithDetails devuelve una copia con detalles añadidos (no muta el centinela).
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+len(details))
	maps.Copy(cp.Details, e.Details)
	maps.Copy(cp.Details, details)
	return &cp
}

// WithMessage devuelve una copia con otro mensaje.
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.Message = message
	return &cp
}

// Wrap devuelve una copia que envuelve la causa.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// CodeOf devuelve el Code del primer *Error de la cadena, o CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Errores de dominio (sin dependencias externas).
var (
	ErrTenantRequired          = New(CodeTenantRequired, "se requiere identificar el tenant")
	ErrTenantInvalid           = New(CodeTenantInvalid, "identificador de tenant inválido")
	ErrInvalidCredentials      = New(CodeAuthInvalidCredentials, "credenciales inválidas")
	ErrTokenExpired            = New(CodeAuthTokenExpired, "token expirado")
	ErrTokenRevoked            = New(CodeAuthTokenRevoked, "token revocado")
	ErrTokenMalformed          = New(CodeAuthTokenMalformed, "token inválido")
	ErrTokenMissing            = New(CodeAuthTokenMissing, "Authorization header requerido")
	ErrRefreshTokenReuse       = New(CodeRefreshTokenReuse, "refresh token reutilizado; la sesión fue revocada")
	ErrForbidden               = New(CodeForbidden, "acceso denegado")
	ErrIdempotencyConflict     = New(CodeIdempotencyConflict, "Idempotency-Key ya usada con otro payload o endpoint")
	ErrPostingUnbalanced       = New(CodePostingUnbalanced, "el asiento no cuadra: débitos y créditos difieren")
	ErrPostingInvalidAccount   = New(CodePostingInvalidAccount, "cuenta inválida para contabilizar")
	ErrPostingApprovalRequired = New(CodePostingApprovalRequired, "faltan aprobaciones requeridas")
	ErrPostingNotReversible    = New(CodePostingNotReversible, "el asiento no se puede reversar")
	ErrValidation              = New(CodeValidation, "entrada inválida")
	ErrNotFound                = New(CodeNotFound, "recurso no encontrado")
	ErrConflict                = New(CodeConflict, "conflicto con el estado actual")
	ErrRateLimited             = New(CodeRateLimited, "límite de peticiones excedido")
	ErrInternal                = New(CodeInternal, "error interno")
)
