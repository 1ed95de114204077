package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pneumoscan/pneumoscan/internal/config"
	"github.com/pneumoscan/pneumoscan/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "0123456789abcdef0123456789abcdef"

func bearerFor(t *testing.T, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func guardedRouter(enabled bool) *gin.Engine {
	verifier := auth.NewTokenVerifier(config.JWTConfig{Enabled: enabled, Secret: testSecret})

	r := gin.New()
	r.Use(Authenticate(verifier, enabled))
	r.GET("/infos/:owner", OwnerGuard(enabled), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"owner": c.Param("owner")})
	})
	return r
}

func request(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	r := guardedRouter(true)
	w := request(r, "/infos/doctor@clinic.org", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	r := guardedRouter(true)
	w := request(r, "/infos/doctor@clinic.org", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOwnerGuardAllowsMatchingIdentity(t *testing.T) {
	r := guardedRouter(true)
	w := request(r, "/infos/doctor@clinic.org", bearerFor(t, "doctor@clinic.org"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOwnerGuardMatchIsCaseInsensitive(t *testing.T) {
	r := guardedRouter(true)
	w := request(r, "/infos/Doctor@Clinic.ORG", bearerFor(t, "doctor@clinic.org"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOwnerGuardRejectsForeignOwner(t *testing.T) {
	r := guardedRouter(true)
	w := request(r, "/infos/other@clinic.org", bearerFor(t, "doctor@clinic.org"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOwnerGuardRejectsMalformedOwnerParam(t *testing.T) {
	r := guardedRouter(true)
	w := request(r, "/infos/not-an-email", bearerFor(t, "doctor@clinic.org"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGuardsPassThroughWhenDisabled(t *testing.T) {
	r := guardedRouter(false)
	w := request(r, "/infos/doctor@clinic.org", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDEchoesCallerHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-abc", w.Body.String())
	assert.Equal(t, "req-abc", w.Header().Get("X-Request-ID"))
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS(config.CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization"},
		MaxAge:         12 * time.Hour,
	}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
}
