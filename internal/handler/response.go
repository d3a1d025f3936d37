package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/physiotrack/clinic-api/pkg/errors"
)

// Respond writes the standard success envelope.
func Respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"status": "success",
		"data":   data,
	})
}

// RespondList writes a paginated success envelope.
func RespondList(c *gin.Context, data interface{}, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   data,
		"meta": gin.H{
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// RespondError maps an error to the error envelope. Domain errors carry their
// own HTTP status; anything else is a 500 with a generic message so internals
// never leak to clients.
func RespondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.StatusCode(), gin.H{
			"status":  "error",
			"message": appErr.Message,
		})
		return
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "validation failed",
			"fields":  validationFields(validationErrs),
		})
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"message": "internal server error",
	})
}

// RespondBadRequest is for binding failures, where the error text from gin is
// safe to show.
func RespondBadRequest(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "validation failed",
			"fields":  validationFields(validationErrs),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  "error",
		"message": "invalid request body",
	})
}

func validationFields(errs validator.ValidationErrors) []gin.H {
	fields := make([]gin.H, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, gin.H{
			"field": fe.Field(),
			"rule":  fe.Tag(),
		})
	}
	return fields
}
