package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"talentflow/internal/talentflow"
)

const (
	codeNotFound       = "not_found"
	codeConflict       = "conflict"
	codeValidation     = "validation"
	codeSimulatedFault = "simulated_fault"
	codeStorage        = "storage"
	codeUnauthorized   = "unauthorized"
	codeRateLimited    = "rate_limited"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type dataResponse struct {
	Data any `json:"data"`
}

// Meta describes the page returned by a list endpoint. Total and TotalPages
// count the filtered set, not the page.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

type pageResponse[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

// paginate slices items to [(page-1)*size, page*size). page and size must be
// at least 1; a page past the end is empty.
func paginate[T any](items []T, page, size int) pageResponse[T] {
	total := len(items)
	totalPages := total / size
	if total%size != 0 {
		totalPages++
	}
	start, end := total, total
	if page <= totalPages {
		start = (page - 1) * size
		end = start + min(size, total-start)
	}

	data := make([]T, 0, end-start)
	data = append(data, items[start:end]...)
	return pageResponse[T]{
		Data: data,
		Meta: Meta{
			Total:      total,
			Page:       page,
			PageSize:   size,
			TotalPages: totalPages,
		},
	}
}

// fail writes err as a JSON error with the status its class maps to.
func (g *Gateway) fail(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, codeStorage
	switch {
	case errors.Is(err, talentflow.ErrNotFound):
		status, code = http.StatusNotFound, codeNotFound
	case errors.Is(err, talentflow.ErrConflict):
		status, code = http.StatusConflict, codeConflict
	case errors.Is(err, talentflow.ErrValidation):
		status, code = http.StatusBadRequest, codeValidation
	case errors.Is(err, talentflow.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, codeUnauthorized
	case errors.Is(err, talentflow.ErrSimulatedFault):
		code = codeSimulatedFault
	}

	msg := err.Error()
	if status == http.StatusInternalServerError && code == codeStorage {
		g.logger.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		msg = "internal storage error"
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg, Code: code})
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", talentflow.ErrValidation, fmt.Sprintf(format, args...))
}

// pathID parses a numeric route parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, invalid("%s must be an integer, got %q", name, c.Param(name))
	}
	return id, nil
}

// pageParams reads page and pageSize. Both must be integers >= 1 when present.
func pageParams(c *gin.Context, defaultSize int) (page, size int, err error) {
	page, err = positiveQuery(c, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	size, err = positiveQuery(c, "pageSize", defaultSize)
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

func positiveQuery(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, invalid("%s must be a positive integer, got %q", name, raw)
	}
	return n, nil
}

// bindJSON decodes the request body into v.
func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return invalid("malformed request body: %v", err)
	}
	return nil
}
