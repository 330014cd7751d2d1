package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/wherecode/command-console/internal/lru"
)

// Role defines the access level of an operator credential.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleReadOnly Role = "readonly"
)

// AuthConfig holds authentication configuration for the operator API.
type AuthConfig struct {
	Mode      string // "api-key", "jwt", "none"
	APIKey    string
	JWTSecret string
}

// verifiedToken is a cached JWT verification result. Cached entries honor
// the token's own expiry.
type verifiedToken struct {
	role      Role
	expiresAt time.Time
}

// NewAuthMiddleware returns a Fiber middleware validating the Authorization
// header against the configured mode. Probe endpoints stay open. Verified
// JWTs are cached so repeated requests skip signature checks.
func NewAuthMiddleware(cfg AuthConfig, logger zerolog.Logger) fiber.Handler {
	jwtCache := lru.New[string, verifiedToken](512)

	return func(c *fiber.Ctx) error {
		if cfg.Mode == "none" {
			c.Locals("role", RoleAdmin)
			return c.Next()
		}

		path := c.Path()
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return problemResponse(c, fiber.StatusUnauthorized,
				"missing_auth", "Unauthorized",
				"Authorization header is required")
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_auth_scheme", "Unauthorized",
				"Authorization header must use Bearer scheme")
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		var (
			role Role
			err  error
		)
		switch cfg.Mode {
		case "api-key":
			role, err = apiKeyRole(cfg, token)
		case "jwt":
			role, err = cachedJWTRole(cfg, jwtCache, token)
		default:
			err = fmt.Errorf("unsupported auth mode %q", cfg.Mode)
		}
		if err != nil {
			logger.Warn().
				Str("path", path).
				Str("method", c.Method()).
				Err(err).
				Msg("unauthorized request")
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_credentials", "Unauthorized",
				"Invalid operator credentials")
		}

		c.Locals("role", role)
		return c.Next()
	}
}

func apiKeyRole(cfg AuthConfig, token string) (Role, error) {
	if cfg.APIKey != "" && token == cfg.APIKey {
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown api key")
}

// cachedJWTRole consults the verification cache before parsing. Tokens are
// re-verified once their own expiry passes.
func cachedJWTRole(cfg AuthConfig, cache *lru.Cache[string, verifiedToken], token string) (Role, error) {
	if v, ok := cache.Get(token); ok {
		if time.Now().Before(v.expiresAt) {
			return v.role, nil
		}
		cache.Delete(token)
	}

	role, expiresAt, err := jwtRole(cfg, token)
	if err != nil {
		return "", err
	}
	if !expiresAt.IsZero() {
		cache.Put(token, verifiedToken{role: role, expiresAt: expiresAt})
	}
	return role, nil
}

// jwtRole validates an HS256 operator token signed with the shared secret.
// The optional "role" claim downgrades from the default operator level.
func jwtRole(cfg AuthConfig, token string) (Role, time.Time, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("parsing token: %w", err)
	}
	if !parsed.Valid {
		return "", time.Time{}, fmt.Errorf("invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", time.Time{}, fmt.Errorf("unexpected claims type")
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	switch claims["role"] {
	case "admin":
		return RoleAdmin, expiresAt, nil
	case "readonly":
		return RoleReadOnly, expiresAt, nil
	case nil, "operator":
		return RoleOperator, expiresAt, nil
	default:
		return "", time.Time{}, fmt.Errorf("unknown role claim %v", claims["role"])
	}
}

// requireRole returns a middleware enforcing a minimum role level.
func requireRole(minRole Role) fiber.Handler {
	roleLevel := map[Role]int{
		RoleReadOnly: 1,
		RoleOperator: 2,
		RoleAdmin:    3,
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(Role)
		if roleLevel[role] < roleLevel[minRole] {
			return problemResponse(c, fiber.StatusForbidden,
				"insufficient_role", "Forbidden",
				"Insufficient permissions for this operation")
		}
		return c.Next()
	}
}
