package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ActiveConnections tracks live websocket connections.
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sweeparena_active_connections",
		Help: "Number of live websocket connections",
	})

	// IntentsTotal counts client intents by type.
	IntentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweeparena_intents_total",
		Help: "Client intents received, by intent type",
	}, []string{"type"})

	// IntentErrors counts rejected intents by wire error code.
	IntentErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweeparena_intent_errors_total",
		Help: "Rejected client intents, by error code",
	}, []string{"code"})

	// EventsDelivered counts broadcast messages queued to connections.
	EventsDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sweeparena_events_delivered_total",
		Help: "Broadcast messages queued for delivery",
	})

	// EventsDropped counts messages dropped on slow connections.
	EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sweeparena_events_dropped_total",
		Help: "Broadcast messages dropped because a connection's buffer was full",
	})

	// GamesStarted counts game starts by mode.
	GamesStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweeparena_games_started_total",
		Help: "Games started, by mode",
	}, []string{"mode"})

	// GamesEnded counts finished games by outcome.
	GamesEnded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweeparena_games_ended_total",
		Help: "Games ended, by outcome",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		ActiveConnections,
		IntentsTotal,
		IntentErrors,
		EventsDelivered,
		EventsDropped,
		GamesStarted,
		GamesEnded,
	)
}
