package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nexxacraft/community-admin/internal/dto"
	"github.com/nexxacraft/community-admin/internal/guard"
	"github.com/nexxacraft/community-admin/internal/session"
)

const waitingPage = `<!doctype html><html><head><meta charset="utf-8"><meta http-equiv="refresh" content="1"><title>Loading</title></head><body><p>Loading…</p></body></html>`

func stateOf(c *fiber.Ctx) session.State {
	if sess := SessionFrom(c); sess != nil {
		return sess.State()
	}
	return session.State{Loading: true}
}

// RequireSession rejects API calls without a signed-in staff member.
func RequireSession(opts ...guard.Option) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if guard.Protect(stateOf(c), opts...) != guard.Admit {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		return c.Next()
	}
}

// PageGuard sends signed-out visitors of dashboard pages to /login.
func PageGuard(opts ...guard.Option) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch guard.Protect(stateOf(c), opts...) {
		case guard.Admit:
			return c.Next()
		case guard.Wait:
			c.Set(fiber.HeaderCacheControl, "no-store")
			return c.Type("html").SendString(waitingPage)
		default:
			return c.Redirect("/login", fiber.StatusFound)
		}
	}
}

// LoginGate sends signed-in staff away from /login to the dashboard.
func LoginGate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch guard.LoginGate(stateOf(c)) {
		case guard.RedirectToDashboard:
			return c.Redirect("/dashboard", fiber.StatusFound)
		case guard.Wait:
			c.Set(fiber.HeaderCacheControl, "no-store")
			return c.Type("html").SendString(waitingPage)
		default:
			return c.Next()
		}
	}
}
