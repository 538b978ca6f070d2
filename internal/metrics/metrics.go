package metrics

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DocstoreWrites counts committed document writes by collection and change kind.
	DocstoreWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_admin_docstore_writes_total",
		Help: "Total number of committed document writes",
	}, []string{"collection", "kind"})

	// DocstoreSubscriptions is the gauge of open live queries per collection.
	DocstoreSubscriptions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "community_admin_docstore_subscriptions",
		Help: "Number of open document subscriptions",
	}, []string{"collection"})

	// BrokerPublishErrors counts change notifications that could not be published.
	BrokerPublishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_admin_broker_publish_errors_total",
		Help: "Total number of failed change publications",
	}, []string{"collection"})

	// ReportStatusChanges counts triage transitions by target status.
	ReportStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_admin_report_status_changes_total",
		Help: "Total number of report status changes",
	}, []string{"status"})

	// LoginAttempts counts staff sign-in attempts by result.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_admin_login_attempts_total",
		Help: "Total number of staff sign-in attempts",
	}, []string{"result"})

	// LiveConnections is the gauge of open dashboard websockets per screen.
	LiveConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "community_admin_live_connections",
		Help: "Number of open live dashboard connections",
	}, []string{"screen"})

	// LiveDrops counts live frames dropped due to backpressure.
	LiveDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_admin_live_drops_total",
		Help: "Total number of live frames dropped",
	}, []string{"screen", "reason"})
)

// Init returns the HTTP request middleware labelled with serviceName.
func Init(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// Register mounts the scrape endpoint and request instrumentation on app.
func Register(app *fiber.App, prom *fiberprometheus.FiberPrometheus, path string) {
	prom.RegisterAt(app, path)
	app.Use(prom.Middleware)
}
