package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/nexxacraft/community-admin/internal/auth"
	"github.com/nexxacraft/community-admin/internal/live"
	"github.com/nexxacraft/community-admin/internal/middleware"
	"github.com/nexxacraft/community-admin/internal/models"
	"github.com/nexxacraft/community-admin/internal/screens"
	"github.com/nexxacraft/community-admin/internal/session"
)

const (
	defaultRecheck = time.Minute
	localUserAgent = "live_user_agent"
)

// LiveHandler serves the dashboard screens over websockets. Each connection
// mounts its own screen and unmounts it when the socket closes or the staff
// session ends.
type LiveHandler struct {
	authService *auth.Service
	hub         *live.Hub
	users       screens.UserSource
	reports     screens.ReportSource
	evidence    screens.EvidenceLinker
	loc         *time.Location
	hideAdmins  bool
	recheck     time.Duration
}

type LiveOptions struct {
	Evidence   screens.EvidenceLinker
	Location   *time.Location
	HideAdmins bool
	// Recheck is how often an open connection re-verifies its session.
	Recheck time.Duration
}

func NewLiveHandler(authService *auth.Service, hub *live.Hub, users screens.UserSource, reports screens.ReportSource, opts LiveOptions) *LiveHandler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Recheck == 0 {
		opts.Recheck = defaultRecheck
	}
	return &LiveHandler{
		authService: authService,
		hub:         hub,
		users:       users,
		reports:     reports,
		evidence:    opts.Evidence,
		loc:         opts.Location,
		hideAdmins:  opts.HideAdmins,
		recheck:     opts.Recheck,
	}
}

// Upgrade rejects plain HTTP requests to the live endpoints.
func (h *LiveHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals(localUserAgent, c.Get(fiber.HeaderUserAgent))
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (h *LiveHandler) Overview() fiber.Handler {
	return h.serve("overview", func(ctx context.Context, c *live.Client) func() {
		ov := screens.NewOverview(h.users, h.reports, h.loc)
		stop := ov.Watch(func(st screens.Stats) { c.SendFrame("stats", st) })
		ov.Mount(ctx)
		return func() {
			ov.Unmount()
			stop()
		}
	})
}

func (h *LiveHandler) Users() fiber.Handler {
	return h.serve("users", func(ctx context.Context, c *live.Client) func() {
		r := screens.NewRoster(h.users, h.hideAdmins)
		stop := r.Watch(func(users []models.ApprovedUser) { c.SendFrame("users", users) })
		c.IncomingHandler = func(c *live.Client, cmd live.Command) {
			if cmd.Type == "search" {
				r.SetSearch(cmd.Search)
				return
			}
			c.SendFrame("error", map[string]string{"message": "unknown command"})
		}
		r.Mount(ctx)
		return func() {
			r.Unmount()
			stop()
		}
	})
}

func (h *LiveHandler) Reports() fiber.Handler {
	return h.serve("reports", func(ctx context.Context, c *live.Client) func() {
		t := screens.NewTriage(h.reports, h.evidence)
		stop := t.Watch(func(reports []models.Report) {
			c.SendFrame("reports", map[string]any{"filter": t.Filter().String(), "reports": reports})
		})
		c.IncomingHandler = func(c *live.Client, cmd live.Command) {
			if cmd.Type != "filter" {
				c.SendFrame("error", map[string]string{"message": "unknown command"})
				return
			}
			filter, err := models.ParseStatusFilter(cmd.Status)
			if err != nil {
				c.SendFrame("error", map[string]string{"message": err.Error()})
				return
			}
			t.SetFilter(ctx, filter)
		}
		t.Mount(ctx)
		return func() {
			t.Unmount()
			stop()
		}
	})
}

func (h *LiveHandler) serve(screen string, mount func(ctx context.Context, c *live.Client) func()) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		id, _ := conn.Locals(middleware.LocalIdentity).(*auth.Identity)
		token, _ := conn.Locals(middleware.LocalToken).(string)
		if id == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"signed_out"}`))
			_ = conn.Close()
			return
		}

		client, err := h.hub.Register(screen, id.Email, conn)
		if err != nil {
			slog.Warn("live connection refused", "screen", screen, "actor", id.Email, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"message":"`+err.Error()+`"}}`))
			_ = conn.Close()
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		userAgent, _ := conn.Locals(localUserAgent).(string)
		gw := auth.NewClient(h.authService, userAgent)
		gw.Adopt(id, token)
		sess := session.New(gw).Start()
		defer sess.Close()

		stopWatch := sess.Watch(func(st session.State) {
			if !st.Authenticated() {
				client.SendFrame("signed_out", nil)
				client.Close()
			}
		})
		defer stopWatch()
		go live.KeepVerified(ctx, gw, token, h.recheck)

		unmount := mount(ctx, client)
		defer unmount()

		slog.Info("live connection opened", "screen", screen, "actor", id.Email)
		go client.WritePump()
		client.ReadPump()
		slog.Info("live connection closed", "screen", screen, "actor", id.Email)
	})
}
