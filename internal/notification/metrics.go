package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagedesk_notifications_sent_total",
		Help: "Number of notification emails delivered successfully, by kind.",
	}, []string{"kind"})

	notificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagedesk_notifications_failed_total",
		Help: "Number of notification emails that failed to render or send, by kind.",
	}, []string{"kind"})
)
