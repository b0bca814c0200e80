package handler

import (
	"github.com/Payphone-Digital/tracker/internal/constants"
	apperrors "github.com/Payphone-Digital/tracker/internal/errors"
	"github.com/Payphone-Digital/tracker/pkg/validation"
	"github.com/gin-gonic/gin"
)

// respondError writes the failure envelope with the status mapped from err
func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.ToHTTPStatus(err), constants.BuildResultResponse(false, apperrors.GetErrorDetails(err)))
}

// respondBindError writes the failure envelope for a request that did not bind
func respondBindError(c *gin.Context, err error) {
	respondError(c, apperrors.WithDetails(apperrors.ErrInvalidInput, validation.Messages(err)...))
}
