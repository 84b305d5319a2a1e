package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/princinho/sahoaccounts/cache"
	"github.com/princinho/sahoaccounts/config"
	"github.com/princinho/sahoaccounts/models"
	"github.com/princinho/sahoaccounts/services"
	"github.com/princinho/sahoaccounts/tokens"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type gateFixture struct {
	codec    *tokens.Codec
	sessions *cache.MemoryCache
	auth     *services.AuthService
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	cfg := &config.Config{
		ActivationSecret: "activation-secret",
		AccessSecret:     "access-secret",
		RefreshSecret:    "refresh-secret",
		AccessTokenTTL:   300 * time.Second,
		RefreshTokenTTL:  1200 * time.Second,
	}
	codec, err := tokens.NewCodec(cfg)
	require.NoError(t, err)
	sessions := cache.NewMemoryCache()
	// the gate only reads the session cache, so no store or mailer
	auth := services.NewAuthService(nil, sessions, codec, nil)
	return &gateFixture{codec: codec, sessions: sessions, auth: auth}
}

// openSession seeds a cached session and returns the user and a valid
// access token cookie value for it.
func (f *gateFixture) openSession(t *testing.T, role models.Role) (*models.User, string) {
	t.Helper()
	user := &models.User{
		ID:    bson.NewObjectID(),
		Name:  "Alice",
		Email: "a@x.com",
		Role:  role,
	}
	record, err := json.Marshal(user)
	require.NoError(t, err)
	require.NoError(t, f.sessions.Put(t.Context(), user.ID.Hex(), record, time.Minute))

	token, err := f.codec.IssueAccessToken(user.ID.Hex())
	require.NoError(t, err)
	return user, token
}

func (f *gateFixture) router(extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{Authenticated(f.codec, f.auth)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		user, _ := CurrentUser(c)
		id, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "email": user.Email})
	})
	r.GET("/protected", handlers...)
	return r
}

func get(r *gin.Engine, accessToken string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if accessToken != "" {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: accessToken})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticated_MissingCookie(t *testing.T) {
	f := newGateFixture(t)

	w := get(f.router(), "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "please login")
}

func TestAuthenticated_BadToken(t *testing.T) {
	f := newGateFixture(t)

	w := get(f.router(), "not-a-token")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not valid")
}

func TestAuthenticated_NoSession(t *testing.T) {
	f := newGateFixture(t)

	// valid token, but nothing was ever put in the session cache
	token, err := f.codec.IssueAccessToken(bson.NewObjectID().Hex())
	require.NoError(t, err)

	w := get(f.router(), token)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "session not found")
}

func TestAuthenticated_Success(t *testing.T) {
	f := newGateFixture(t)
	user, token := f.openSession(t, models.RoleUser)

	w := get(f.router(), token)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, user.ID.Hex(), body.ID)
	assert.Equal(t, "a@x.com", body.Email)
}

func TestRequireRole_Forbidden(t *testing.T) {
	f := newGateFixture(t)
	_, token := f.openSession(t, models.RoleUser)

	w := get(f.router(RequireRole(models.RoleAdmin)), token)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "not allowed")
}

func TestRequireRole_Allowed(t *testing.T) {
	f := newGateFixture(t)
	_, token := f.openSession(t, models.RoleAdmin)

	w := get(f.router(RequireRole(models.RoleAdmin)), token)

	assert.Equal(t, http.StatusOK, w.Code)
}
