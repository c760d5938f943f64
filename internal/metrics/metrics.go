package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "method", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "messenger_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messenger_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})

	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_messages_sent_total",
		Help: "Messages stored by chat type.",
	}, []string{"chat_type"})

	ChannelsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messenger_channels_created_total",
		Help: "Channels created.",
	})

	GroupsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messenger_groups_created_total",
		Help: "Groups created.",
	})

	VerificationCodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_verification_codes_total",
		Help: "Verification codes issued by delivery mode and outcome.",
	}, []string{"mode", "outcome"})
)
