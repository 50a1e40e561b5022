package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"handyhub/internal/model"
	"handyhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"

	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// Authenticator validates HS256 access tokens from the access_token cookie or a Bearer header
type Authenticator struct {
	secret        []byte
	secureCookies bool
}

// NewAuthenticator builds the auth middleware set. secureCookies switches cookies to SameSite=None; Secure.
func NewAuthenticator(secret string, secureCookies bool) *Authenticator {
	return &Authenticator{secret: []byte(secret), secureCookies: secureCookies}
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func (a *Authenticator) SetTokenCookies(c *gin.Context, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration) {
	a.sameSite(c)
	c.SetCookie(AccessCookie, accessToken, int(accessTTL.Seconds()), "/", "", a.secureCookies, true)
	c.SetCookie(RefreshCookie, refreshToken, int(refreshTTL.Seconds()), "/", "", a.secureCookies, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func (a *Authenticator) ClearTokenCookies(c *gin.Context) {
	a.sameSite(c)
	c.SetCookie(AccessCookie, "", -1, "/", "", a.secureCookies, true)
	c.SetCookie(RefreshCookie, "", -1, "/", "", a.secureCookies, true)
}

func (a *Authenticator) sameSite(c *gin.Context) {
	// cross-origin frontends need SameSite=None, which browsers only accept with Secure
	if a.secureCookies {
		c.SetSameSite(http.SameSiteNoneMode)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
}

var errNoToken = errors.New("authorization is missing")

func tokenFromRequest(c *gin.Context) (string, error) {
	if token, err := c.Cookie(AccessCookie); err == nil && token != "" {
		return token, nil
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errNoToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization format. Expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// parse returns the subject and role of a valid token
func (a *Authenticator) parse(tokenString string) (uuid.UUID, model.Role, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return uuid.Nil, "", errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", errors.New("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", errors.New("invalid token subject")
	}
	role, _ := claims["role"].(string)
	if !model.Role(role).Valid() {
		return uuid.Nil, "", errors.New("role not found in token")
	}
	return userID, model.Role(role), nil
}

func (a *Authenticator) authenticate(c *gin.Context) bool {
	tokenString, err := tokenFromRequest(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(capitalize(err.Error()), nil))
		return false
	}
	userID, role, err := a.parse(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(capitalize(err.Error()), nil))
		return false
	}
	c.Set(ctxUserID, userID)
	c.Set(ctxUserRole, role)
	return true
}

// RequireAuth rejects requests without a valid access token
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.authenticate(c) {
			c.Next()
		}
	}
}

// RequireRole validates the token and checks the role is in allowedRoles
func (a *Authenticator) RequireRole(allowedRoles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		role := c.MustGet(ctxUserRole).(model.Role)
		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error("Access denied: insufficient permissions", nil))
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets anonymous requests through
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, err := tokenFromRequest(c); err == nil {
			if userID, role, err := a.parse(tokenString); err == nil {
				c.Set(ctxUserID, userID)
				c.Set(ctxUserRole, role)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller, if any
func CurrentUser(c *gin.Context) (uuid.UUID, model.Role, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, "", false
	}
	userID, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	role, _ := c.Get(ctxUserRole)
	r, _ := role.(model.Role)
	return userID, r, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
