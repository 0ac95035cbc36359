package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
)

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Clone(appErrors.ErrConflict, "status cannot move backward"))

	require.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		Error appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body.Error.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestErrorUnknownBecomesInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, errors.New("db down"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Len(t, c.Errors, 1)
}

func TestAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Attachment(c, "reports.csv", "text/csv", []byte("a,b\n"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="reports.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", w.Body.String())
}
