package dto

import (
	"encoding/json"
	"strings"

	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
)

// Estados del sobre de respuesta.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SuccessResponse sobre uniforme de éxito.
type SuccessResponse struct {
	Status     string         `json:"status"`
	Data       any            `json:"data"`
	Meta       map[string]any `json:"meta,omitempty"`
	Pagination *Pagination    `json:"pagination,omitempty"`
}

// ErrorResponse sobre uniforme de error.
type ErrorResponse struct {
	Status    string         `json:"status"`
	Message   string         `json:"message"`
	ErrorCode string         `json:"error_code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Pagination metadatos de listados paginados.
type Pagination struct {
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Pages    int  `json:"pages"`
	HasNext  bool `json:"has_next"`
	HasPrev  bool `json:"has_prev"`
}

// Success construye el sobre de éxito.
func Success(data any) SuccessResponse {
	return SuccessResponse{Status: StatusSuccess, Data: data}
}

// Paginated construye el sobre de éxito con paginación.
func Paginated(data any, total int, q entity.PageQuery) SuccessResponse {
	return SuccessResponse{Status: StatusSuccess, Data: data, Pagination: NewPagination(total, q)}
}

// Failure construye el sobre de error.
func Failure(message string, code domain.Code, details map[string]any) ErrorResponse {
	return ErrorResponse{Status: StatusError, Message: message, ErrorCode: string(code), Details: details}
}

// NewPagination calcula páginas y navegación.
func NewPagination(total int, q entity.PageQuery) *Pagination {
	size := q.Limit()
	page := q.Page
	if page < 1 {
		page = 1
	}
	pages := (total + size - 1) / size
	return &Pagination{
		Total:    total,
		Page:     page,
		PageSize: size,
		Pages:    pages,
		HasNext:  page < pages,
		HasPrev:  page > 1,
	}
}

// Render serializa el sobre de éxito. La misma función produce la primera respuesta
// y el cuerpo que se almacena para replays de idempotencia.
func Render(data any) ([]byte, error) {
	return json.Marshal(Success(data))
}

// PageRequest parámetros de listado tal como llegan en la query string.
type PageRequest struct {
	Page      int    `query:"page"`
	PageSize  int    `query:"page_size"`
	SortBy    string `query:"sort_by"`
	SortOrder string `query:"sort_order"`
}

// ToQuery valida y normaliza la paginación. sortable es la lista blanca de sort_by del recurso;
// el primer elemento es el orden por defecto.
func (p PageRequest) ToQuery(sortable ...string) (entity.PageQuery, error) {
	q := entity.PageQuery{Page: p.Page, PageSize: p.PageSize, SortBy: p.SortBy, SortOrder: strings.ToLower(p.SortOrder)}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Page < 1 {
		return q, domain.ErrValidation.WithDetails(map[string]any{"field": "page", "reason": "debe ser >= 1"})
	}
	if q.PageSize == 0 {
		q.PageSize = entity.DefaultPageSize
	}
	if q.PageSize < 1 || q.PageSize > entity.MaxPageSize {
		return q, domain.ErrValidation.WithDetails(map[string]any{"field": "page_size", "reason": "debe estar entre 1 y 100"})
	}
	switch q.SortOrder {
	case "":
		q.SortOrder = "asc"
	case "asc", "desc":
	default:
		return q, domain.ErrValidation.WithDetails(map[string]any{"field": "sort_order", "reason": "asc o desc"})
	}
	if q.SortBy == "" {
		if len(sortable) > 0 {
			q.SortBy = sortable[0]
		}
		return q, nil
	}
	for _, s := range sortable {
		if s == q.SortBy {
			return q, nil
		}
	}
	return q, domain.ErrValidation.WithDetails(map[string]any{"field": "sort_by", "allowed": sortable})
}
