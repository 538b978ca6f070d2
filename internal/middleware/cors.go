package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/nexxacraft/community-admin/internal/config"
)

// CORS allows the configured dashboard origins to call the API with the
// session cookie.
func CORS(cfg *config.Config) fiber.Handler {
	origins := strings.Join(parseCSV(cfg.CORSOrigins), ",")
	credentials := origins != ""
	if !credentials {
		// Cookies are never sent cross-origin to a wildcard.
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, X-Request-ID",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, OPTIONS",
		AllowCredentials: credentials,
	})
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" && trimmed != "*" {
			result = append(result, trimmed)
		}
	}
	return result
}
