package httpsrv

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	apiKey := "test-api-key"
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash api key: %v", err)
	}
	s := New(nil, []byte("unit-test-secret-unit-test-secret"), hash, 0)
	return s, apiKey
}

func Test_IssueToken_RejectsWrongKey(t *testing.T) {
	assert := assert.New(t)

	s, _ := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"api_key": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/token", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)
	assert.Equal(http.StatusUnauthorized, rec.Code)
}

func Test_IssueToken_AcceptsCorrectKey(t *testing.T) {
	assert := assert.New(t)

	s, apiKey := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"api_key": apiKey})
	req := httptest.NewRequest(http.MethodPost, "/token", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)
	assert.Equal(http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	assert.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(resp.Token)
}

func Test_UploadGrammar_RequiresAuth(t *testing.T) {
	assert := assert.New(t)

	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/grammars/", bytes.NewReader([]byte("raw")))
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)
	assert.Equal(http.StatusUnauthorized, rec.Code)
}

func Test_UploadGrammar_RejectsMalformedBearerHeader(t *testing.T) {
	assert := assert.New(t)

	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/grammars/", bytes.NewReader([]byte("raw")))
	req.Header.Set("Authorization", "Basic not-a-bearer-token")
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)
	assert.Equal(http.StatusUnauthorized, rec.Code)
}

func Test_BearerToken_Parsing(t *testing.T) {
	assert := assert.New(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := bearerToken(req)
	assert.Error(err, "missing header should error")

	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	tok, err := bearerToken(req)
	assert.NoError(err)
	assert.Equal("abc.def.ghi", tok)
}

func Test_Shutdown_ReturnsImmediately(t *testing.T) {
	assert := assert.New(t)

	s, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	assert.NoError(s.Shutdown(ctx))
}
