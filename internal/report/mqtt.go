package report

import (
	"context"
	"encoding/json"

	"github.com/tphakala/pitchtrack/internal/logger"
	"github.com/tphakala/pitchtrack/internal/mqtt"
	"github.com/tphakala/pitchtrack/internal/notes"
	"github.com/tphakala/pitchtrack/internal/observability/metrics"
)

// MQTTSink publishes events as JSON to an MQTT topic.
type MQTTSink struct {
	client mqtt.Client
	topic  string
	q      *queue
	ctx    context.Context
	cancel context.CancelFunc
}

// NewMQTTSink starts a sink publishing to topic through client. The client
// must already be connected. Call Close to stop it.
func NewMQTTSink(client mqtt.Client, topic string, queueSize int, m *metrics.PitchMetrics) *MQTTSink {
	ctx, cancel := context.WithCancel(context.Background())
	s := &MQTTSink{
		client: client,
		topic:  topic,
		q:      newQueue(metrics.SinkMQTT, queueSize, m),
		ctx:    ctx,
		cancel: cancel,
	}
	go s.q.run(s.publish)
	return s
}

// Deliver queues ev for publication, dropping it if the queue is full.
func (s *MQTTSink) Deliver(ev notes.Event) {
	s.q.offer(ev)
}

func (s *MQTTSink) publish(ev *notes.Event) {
	payload, err := json.Marshal(NewEventPayload(ev))
	if err != nil {
		getLogger().Error("failed to encode event", logger.Error(err))
		return
	}
	if err := s.client.Publish(s.ctx, s.topic, payload); err != nil {
		getLogger().Warn("failed to publish event",
			logger.String("topic", s.topic),
			logger.Uint64("sequence", ev.Sequence),
			logger.Error(err))
		return
	}
	s.q.metrics.RecordDelivered(metrics.SinkMQTT)
}

// Close publishes queued events and stops the worker. It does not disconnect the client.
func (s *MQTTSink) Close() {
	s.q.close()
	s.cancel()
}
