package rest

import (
	"errors"
	"net/http"

	"github.com/Gunvolt24/ordersync/internal/domain"
	"github.com/Gunvolt24/ordersync/pkg/httpx"
	"github.com/gin-gonic/gin"
)

// Машиночитаемые коды ошибок в ответах.
const (
	codeValidation       = "validation_failed"
	codeInvalidParameter = "invalid_parameter"
	codeInvalidRange     = "invalid_range"
	codeNotFound         = "not_found"
	codeStoreUnavailable = "store_unavailable"
	codeSearchUnavail    = "search_unavailable"
	codeInternal         = "internal"
	codeRouteNotFound    = "route_not_found"
	codeMethodNotAllowed = "method_not_allowed"
)

// errorResponse — тело ответа с ошибкой.
type errorResponse struct {
	Error  string                  `json:"error"`
	Code   string                  `json:"code"`
	Fields []domain.FieldViolation `json:"fields,omitempty"`
}

// writeError — перевод ошибок сервиса в HTTP-статусы.
func (h *Handler) writeError(c *gin.Context, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorf(c.Request.Context(), "%s %s failed status=%d err=%v", c.Request.Method, c.FullPath(), status, err)
	}
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, errorResponse) {
	var (
		paramErr *httpx.ParamError
		valErr   *domain.ValidationError
	)
	switch {
	case errors.As(err, &paramErr):
		return http.StatusBadRequest, errorResponse{
			Error:  paramErr.Error(),
			Code:   codeInvalidParameter,
			Fields: []domain.FieldViolation{{Field: paramErr.Param, Rule: paramErr.Rule}},
		}
	case errors.As(err, &valErr):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeValidation, Fields: valErr.Violations}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeValidation}
	case errors.Is(err, domain.ErrInvalidRange):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: codeInvalidRange}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: domain.ErrNotFound.Error(), Code: codeNotFound}
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, errorResponse{Error: domain.ErrStoreUnavailable.Error(), Code: codeStoreUnavailable}
	case errors.Is(err, domain.ErrSearchUnavailable):
		return http.StatusServiceUnavailable, errorResponse{Error: domain.ErrSearchUnavailable.Error(), Code: codeSearchUnavail}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: codeInternal}
	}
}
