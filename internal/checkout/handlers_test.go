package checkout

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(provider *fakeProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(newTestService(provider))
	h.RegisterRoutes(r.Group("/v1"))
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateIntentHandler_Success(t *testing.T) {
	r := newTestRouter(&fakeProvider{})

	w := postJSON(r, "/v1/checkout/intents",
		`{"userId": "7", "planId": "2", "email": "buyer@acme.test"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pi_test_secret", resp.ClientSecret)
	assert.Equal(t, int64(34900), resp.AmountMinor)
}

func TestCreateIntentHandler_MissingFields(t *testing.T) {
	r := newTestRouter(&fakeProvider{})

	w := postJSON(r, "/v1/checkout/intents", `{"planId": "2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid")
}

func TestCreateIntentHandler_BadEmail(t *testing.T) {
	r := newTestRouter(&fakeProvider{})

	w := postJSON(r, "/v1/checkout/intents",
		`{"userId": "7", "planId": "2", "email": "not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_email")
}

func TestCreateIntentHandler_OversizedField(t *testing.T) {
	r := newTestRouter(&fakeProvider{})

	longID := strings.Repeat("x", 65)
	w := postJSON(r, "/v1/checkout/intents",
		`{"userId": "`+longID+`", "planId": "2", "email": "buyer@acme.test"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_request")
	assert.Contains(t, w.Body.String(), "userId")
}

func TestCreateIntentHandler_TrimsWhitespace(t *testing.T) {
	r := newTestRouter(&fakeProvider{})

	w := postJSON(r, "/v1/checkout/intents",
		`{"userId": "7", "planId": "2", "email": "  buyer@acme.test  "}`)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCreateIntentHandler_UnknownPlan(t *testing.T) {
	r := newTestRouter(&fakeProvider{})

	w := postJSON(r, "/v1/checkout/intents",
		`{"userId": "7", "planId": "999", "email": "buyer@acme.test"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "plan_not_found")
}
