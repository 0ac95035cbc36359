package response

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
)

// Page describes list window metadata.
type Page struct {
	Limit int `json:"limit"`
	Count int `json:"count"`
}

// Envelope is the body shape shared by every JSON endpoint.
type Envelope struct {
	Data  interface{}      `json:"data,omitempty"`
	Error *appErrors.Error `json:"error,omitempty"`
	Page  *Page            `json:"page,omitempty"`
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

// JSON sends a success envelope.
func JSON(c *gin.Context, status int, data interface{}, page *Page) {
	noStore(c)
	c.JSON(status, Envelope{Data: data, Page: page})
}

func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error renders err as an error envelope using its domain status.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// Attachment streams a downloadable file.
func Attachment(c *gin.Context, filename, contentType string, body []byte) {
	noStore(c)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, body)
}
