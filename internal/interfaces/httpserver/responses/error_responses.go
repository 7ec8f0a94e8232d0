package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domain "resize-server/internal/domain/image"
	"resize-server/internal/utils/platformerrors"
)

// ErrorResponse is the wire shape for every failed operation.
type ErrorResponse struct {
	Error        int    `json:"error"`
	ErrorMessage string `json:"error_message"`
}

// HandleError translates domain and platform errors into HTTP responses.
// The body keeps the {error: 1, error_message} contract for all failures.
func HandleError(reqCtx *gin.Context, err error) {
	reqCtx.AbortWithStatusJSON(statusFor(err), ErrorResponse{
		Error:        1,
		ErrorMessage: err.Error(),
	})
}

// HandleValidationError reports a malformed request without consulting the
// error taxonomy.
func HandleValidationError(reqCtx *gin.Context, message string) {
	reqCtx.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:        1,
		ErrorMessage: message,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrDuplicateImage):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOriginNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidDimensions),
		errors.Is(err, domain.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAmbiguousRecord),
		errors.Is(err, domain.ErrConsistency):
		return http.StatusInternalServerError
	}

	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		return platformerrors.ErrorTypeToHTTPStatus(platformErr.GetErrorType())
	}
	return http.StatusInternalServerError
}
