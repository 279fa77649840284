package notifications

import (
	"time"

	"go.uber.org/zap"
)

// EventType classifies trading lifecycle events worth surfacing to an
// operator.
type EventType string

const (
	EventPositionOpened EventType = "POSITION_OPENED"
	EventPositionClosed EventType = "POSITION_CLOSED"
	EventOrderRejected  EventType = "ORDER_REJECTED"
	EventError          EventType = "ERROR"
)

// Event is one notification payload. Fields holds event-specific
// details (prices, quantities, reason codes).
type Event struct {
	Type      EventType
	Symbol    string
	Message   string
	Fields    map[string]interface{}
	Timestamp time.Time
}

// Notifier delivers trading events. Implementations must not block the
// caller for long; delivery failures are the implementation's problem
// to log, never the trading path's.
type Notifier interface {
	Notify(event Event)
}

// LogNotifier writes events to the structured log. It is the default
// sink and always part of the fan-out.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("events")}
}

func (n *LogNotifier) Notify(event Event) {
	fields := []zap.Field{
		zap.String("type", string(event.Type)),
		zap.String("symbol", event.Symbol),
	}
	for k, v := range event.Fields {
		fields = append(fields, zap.Any(k, v))
	}

	if event.Type == EventError {
		n.log.Warn(event.Message, fields...)
		return
	}
	n.log.Info(event.Message, fields...)
}

// MultiNotifier fans one event out to several sinks.
type MultiNotifier struct {
	sinks []Notifier
}

func NewMultiNotifier(sinks ...Notifier) *MultiNotifier {
	return &MultiNotifier{sinks: sinks}
}

func (n *MultiNotifier) Notify(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	for _, sink := range n.sinks {
		sink.Notify(event)
	}
}
