package httpadapter

import (
	"net/http"

	"github.com/ramay1243/docscan/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrTaskNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrExtraction):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case domain.IsKind(err, domain.ErrAIUnavailable), domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
