package entity

// Límites de paginación.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageQuery parámetros de listado ya validados.
type PageQuery struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string // asc | desc
}

// Offset desplazamiento SQL de la página.
func (q PageQuery) Offset() int {
	if q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// Limit tamaño de página efectivo.
func (q PageQuery) Limit() int {
	if q.PageSize <= 0 {
		return DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return q.PageSize
}

// Desc indica orden descendente.
func (q PageQuery) Desc() bool { return q.SortOrder == "desc" }
