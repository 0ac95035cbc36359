package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/flownco2789-ui/codeai/internal/middleware"
	"github.com/flownco2789-ui/codeai/internal/models"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

func newTestContext(method, target string, body interface{}, claims *models.TokenClaims, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func idParams(id string) gin.Params {
	return gin.Params{{Key: "id", Value: id}}
}
