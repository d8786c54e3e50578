package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobmarket/config"
	"jobmarket/internal/auth"
	"jobmarket/internal/domain"

	"github.com/gin-gonic/gin"
)

func testJWT() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "test",
	}
}

func newRouter(cfg *config.JWTConfig, gate ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthRequired(cfg)}, gate...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "role": GetRole(c)})
	})
	r.GET("/x", handlers...)
	return r
}

func call(r *gin.Engine, header string) int {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuthRequired(t *testing.T) {
	cfg := testJWT()
	pair, err := auth.GeneratePair(cfg, 7, "p@example.test", domain.RoleServiceProvider)
	if err != nil {
		t.Fatal(err)
	}
	r := newRouter(cfg)
	for header, want := range map[string]int{
		"":                                 http.StatusUnauthorized,
		"Bearer":                           http.StatusUnauthorized,
		"Basic " + pair.AccessToken:        http.StatusUnauthorized,
		"Bearer " + pair.RefreshToken:      http.StatusUnauthorized,
		"Bearer " + pair.AccessToken:       http.StatusOK,
		"bearer " + pair.AccessToken:       http.StatusOK,
		"Bearer " + pair.AccessToken + "x": http.StatusUnauthorized,
	} {
		if got := call(r, header); got != want {
			t.Errorf("%q: status = %d, want %d", header, got, want)
		}
	}
}

func TestRoleGates(t *testing.T) {
	cfg := testJWT()
	token := func(role string) string {
		pair, err := auth.GeneratePair(cfg, 1, "u@example.test", role)
		if err != nil {
			t.Fatal(err)
		}
		return "Bearer " + pair.AccessToken
	}
	cases := []struct {
		name string
		gate gin.HandlerFunc
		role string
		want int
	}{
		{"provider gate, provider", RequireRole(domain.RoleServiceProvider), domain.RoleServiceProvider, http.StatusOK},
		{"provider gate, customer", RequireRole(domain.RoleServiceProvider), domain.RoleUser, http.StatusForbidden},
		{"admin gate, admin", AdminRequired(), domain.RoleAdmin, http.StatusOK},
		{"admin gate, super admin", AdminRequired(), domain.RoleSuperAdmin, http.StatusOK},
		{"admin gate, provider", AdminRequired(), domain.RoleServiceProvider, http.StatusForbidden},
		{"super admin gate, admin", SuperAdminRequired(), domain.RoleAdmin, http.StatusForbidden},
		{"super admin gate, super admin", SuperAdminRequired(), domain.RoleSuperAdmin, http.StatusOK},
	}
	for _, tc := range cases {
		if got := call(newRouter(cfg, tc.gate), token(tc.role)); got != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestRoleLabel(t *testing.T) {
	if got := roleLabel([]string{domain.RoleServiceProvider, domain.RoleUser}); got != "a service provider account or a customer account" {
		t.Errorf("roleLabel = %q", got)
	}
}
