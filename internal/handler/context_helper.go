package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/flownco2789-ui/codeai/internal/middleware"
	"github.com/flownco2789-ui/codeai/internal/models"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
)

func claimsFromContext(c *gin.Context) (*models.TokenClaims, error) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

// idParam reads a positive integer path parameter.
func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
