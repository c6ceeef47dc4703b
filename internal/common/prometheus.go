package common

import "github.com/prometheus/client_golang/prometheus"

const (
	BotUpdateTotal           = "bot_updates_total"
	BotUpdateDurationSeconds = "bot_update_duration_seconds"
	PostSubmittedTotal       = "post_submitted_total"
	ModerationDecisionTotal  = "moderation_decision_total"
	NotifierFailureTotal     = "notifier_failure_total"
	GameEventTotal           = "game_event_total"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		BotUpdateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: BotUpdateTotal,
			Help: "Count of all inbound bot updates",
		}, []string{"kind"}),
		PostSubmittedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: PostSubmittedTotal,
			Help: "Count of posts committed to the moderation queue",
		}, []string{"kind"}),
		ModerationDecisionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: ModerationDecisionTotal,
			Help: "Count of moderation decisions",
		}, []string{"action"}),
		NotifierFailureTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: NotifierFailureTotal,
			Help: "Count of failed outbound chat calls",
		}, []string{"method"}),
		GameEventTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: GameEventTotal,
			Help: "Count of lottery and word contest events",
		}, []string{"game", "event"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		BotUpdateDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: BotUpdateDurationSeconds,
			Help: "Duration of handling one inbound update",
		}, []string{"kind"}),
	}
)

func IncCounter(name string, labels ...string) {
	if c, ok := PromCounters[name]; ok {
		c.WithLabelValues(labels...).Inc()
	}
}

func ObserveHistogram(name string, value float64, labels ...string) {
	if h, ok := PromHistograms[name]; ok {
		h.WithLabelValues(labels...).Observe(value)
	}
}
