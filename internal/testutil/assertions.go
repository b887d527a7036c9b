package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v and verifies success
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies a {"error": "<message>"} body with the expected status
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	var body struct {
		Error string `json:"error"`
	}
	AssertJSONResponse(t, resp, &body)
	assert.Equal(t, expectedMessage, body.Error, "error message mismatch")
}

// AssertAuthCookie verifies the attributes every session cookie must carry
func AssertAuthCookie(t *testing.T, cookie *http.Cookie, maxAge int, secure bool) {
	t.Helper()

	require.NotNil(t, cookie, "cookie not set")
	assert.Equal(t, maxAge, cookie.MaxAge, "unexpected max age for %s", cookie.Name)
	assert.True(t, cookie.HttpOnly, "%s must be HttpOnly", cookie.Name)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite, "%s must be SameSite=Strict", cookie.Name)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, secure, cookie.Secure, "unexpected Secure flag for %s", cookie.Name)
}
