package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quantumauth-io/tba-chat-agent/internal/content"
)

const (
	namespace  = "tba_chat_agent"
	otherLabel = "other"
)

// Inbound type ids come from remote peers; only these become label values.
var inboundTypes = map[string]struct{}{
	content.TypeText:                 {},
	content.TypeTransactionReference: {},
	content.TypeIntent:               {},
}

var outboundTypes = map[string]struct{}{
	content.TypeText:            {},
	content.TypeWalletSendCalls: {},
	content.TypeActions:         {},
}

func label(known map[string]struct{}, typeID string) string {
	if _, ok := known[typeID]; ok {
		return typeID
	}
	return otherLabel
}

// MessageTypeLabel maps an inbound content type id onto the bounded label set.
func MessageTypeLabel(typeID string) string {
	return label(inboundTypes, typeID)
}

var (
	messagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Inbound messages by content type id",
		},
		[]string{"type"},
	)

	commandsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_handled_total",
			Help:      "Commands dispatched by kind",
		},
		[]string{"kind"},
	)

	commandErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_errors_total",
			Help:      "Commands that ended in an error reply, by kind",
		},
		[]string{"kind"},
	)

	sends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbound_sends_total",
			Help:      "Outbound sends by content type id and result",
		},
		[]string{"type", "result"},
	)

	streamReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_reconnects_total",
			Help:      "Times the message stream was reopened after a failure",
		},
	)

	handleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_handle_duration_seconds",
			Help:      "Time spent handling one inbound message",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"type"},
	)
)

// RecordMessage counts an inbound message of the given content type id.
func RecordMessage(typeID string) {
	messagesReceived.WithLabelValues(MessageTypeLabel(typeID)).Inc()
}

// RecordCommand counts a dispatched command.
func RecordCommand(kind string) {
	commandsHandled.WithLabelValues(kind).Inc()
}

// RecordCommandError counts a command that failed and was answered with an error reply.
func RecordCommandError(kind string) {
	commandErrors.WithLabelValues(kind).Inc()
}

// RecordSend counts an outbound send attempt.
func RecordSend(typeID string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	sends.WithLabelValues(label(outboundTypes, typeID), result).Inc()
}

func RecordReconnect() {
	streamReconnects.Inc()
}

// RecordHandleDuration observes how long one message took to handle.
func RecordHandleDuration(typeID string, d time.Duration) {
	handleDuration.WithLabelValues(MessageTypeLabel(typeID)).Observe(d.Seconds())
}

// Handler exposes the default registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
