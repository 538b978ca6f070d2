package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/nexxacraft/community-admin/internal/auth"
	"github.com/nexxacraft/community-admin/internal/middleware"
)

//go:embed pages/*.html
var pageFS embed.FS

var pageTemplates = template.Must(template.ParseFS(pageFS, "pages/*.html"))

type pageData struct {
	Title  string
	Screen string
	User   *auth.Identity
}

// PagesHandler renders the dashboard shells. When staticDir holds a built
// frontend its index.html is served instead.
type PagesHandler struct {
	staticDir string
}

func NewPagesHandler(staticDir string) *PagesHandler {
	return &PagesHandler{staticDir: staticDir}
}

func (h *PagesHandler) Root(c *fiber.Ctx) error {
	return c.Redirect("/dashboard", fiber.StatusFound)
}

func (h *PagesHandler) Login(c *fiber.Ctx) error {
	return h.render(c, "login.html", pageData{Title: "Sign in", Screen: "login"})
}

func (h *PagesHandler) Overview(c *fiber.Ctx) error {
	return h.render(c, "dashboard.html", pageData{Title: "Overview", Screen: "overview", User: middleware.IdentityFrom(c)})
}

func (h *PagesHandler) Users(c *fiber.Ctx) error {
	return h.render(c, "dashboard.html", pageData{Title: "Users", Screen: "users", User: middleware.IdentityFrom(c)})
}

func (h *PagesHandler) Reports(c *fiber.Ctx) error {
	return h.render(c, "dashboard.html", pageData{Title: "Reports", Screen: "reports", User: middleware.IdentityFrom(c)})
}

func (h *PagesHandler) render(c *fiber.Ctx, name string, data pageData) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	if h.staticDir != "" {
		index := filepath.Join(h.staticDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			return c.SendFile(index)
		}
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	return c.Type("html").Send(buf.Bytes())
}
