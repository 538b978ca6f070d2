package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nexxacraft/community-admin/internal/auth"
	"github.com/nexxacraft/community-admin/internal/config"
	"github.com/nexxacraft/community-admin/internal/session"
)

// Locals keys set by this package.
const (
	LocalJWT      = "jwt"
	LocalSession  = "session"
	LocalGateway  = "gateway"
	LocalIdentity = "identity"
	LocalToken    = "token"
)

// Session resolves the caller's staff identity and attaches a request-scoped
// session. When JWTProtected ran first its parsed claims are reused;
// otherwise the raw token from the header or cookie is verified here.
func Session(svc *auth.Service, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gw := auth.NewClient(svc, c.Get(fiber.HeaderUserAgent))
		raw := rawToken(c, cfg.SessionCookie)

		if tok, ok := c.Locals(LocalJWT).(*jwt.Token); ok && tok != nil {
			claims, _ := tok.Claims.(jwt.MapClaims)
			id, err := svc.IdentityFromClaims(c.UserContext(), claims)
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrAccountDisabled) {
					slog.Warn("session lookup failed", "request_id", requestID(c), "error", err)
				}
				id, raw = nil, ""
			}
			gw.Adopt(id, raw)
		} else {
			gw.Restore(c.UserContext(), raw)
		}

		sess := session.New(gw).Start()
		defer sess.Close()

		c.Locals(LocalSession, sess)
		c.Locals(LocalGateway, gw)
		if id := sess.CurrentUser(); id != nil {
			c.Locals(LocalIdentity, id)
			c.Locals(LocalToken, gw.Token())
		}
		return c.Next()
	}
}

// SessionFrom returns the session attached by Session, or nil.
func SessionFrom(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(LocalSession).(*session.Session)
	return sess
}

// GatewayFrom returns the per-request auth client attached by Session, or nil.
func GatewayFrom(c *fiber.Ctx) *auth.Client {
	gw, _ := c.Locals(LocalGateway).(*auth.Client)
	return gw
}

// IdentityFrom returns the signed-in staff member, or nil.
func IdentityFrom(c *fiber.Ctx) *auth.Identity {
	id, _ := c.Locals(LocalIdentity).(*auth.Identity)
	return id
}

func rawToken(c *fiber.Ctx, cookie string) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
	}
	return c.Cookies(cookie)
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
