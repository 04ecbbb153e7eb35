package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/iotnatural/poolwatch-core/internal/infrastructure/mqtt"
)

// RetainedPublisher publishes retained messages. *mqtt.Client satisfies it.
type RetainedPublisher interface {
	PublishRetained(topic string, payload []byte) error
}

// MQTTSink publishes each controller document as a retained snapshot on
// poolwatch/controllers/{id}/snapshot.
type MQTTSink struct {
	client  RetainedPublisher
	idField string
}

// NewMQTTSink creates an MQTT sink. idField names the controller identifier column.
func NewMQTTSink(client RetainedPublisher, idField string) *MQTTSink {
	return &MQTTSink{client: client, idField: idField}
}

// Name implements Sink.
func (s *MQTTSink) Name() string { return "mqtt" }

// Export implements Sink. Every controller is attempted; failures are joined.
func (s *MQTTSink) Export(ctx context.Context, snap Snapshot) error {
	var errs []error
	for _, ctrl := range snap.Controllers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		id, ok := ctrl[s.idField]
		if !ok || id == nil {
			errs = append(errs, fmt.Errorf("controller without %s", s.idField))
			continue
		}

		payload, err := json.Marshal(ctrl)
		if err != nil {
			errs = append(errs, fmt.Errorf("encoding controller %v: %w", id, err))
			continue
		}

		topic := mqtt.Topics{}.ControllerSnapshot(fmt.Sprint(id))
		if err := s.client.PublishRetained(topic, payload); err != nil {
			errs = append(errs, fmt.Errorf("publishing controller %v: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
