package export

import (
	"context"
	"fmt"
	"time"

	"github.com/iotnatural/poolwatch-core/internal/controller"
	"github.com/iotnatural/poolwatch-core/internal/infrastructure/database"
)

// ReadingWriter records sensor readings. *influxdb.Client satisfies it.
type ReadingWriter interface {
	WriteSensorReading(ctrlID, sensorID, name string, value float64, ts time.Time)
}

// InfluxFields names the record keys read by InfluxSink.
type InfluxFields struct {
	Controller string
	Sensor     string
	Value      string
	Name       string
}

// InfluxSink writes one sensor_reading point per sensor with a numeric value.
type InfluxSink struct {
	writer ReadingWriter
	fields InfluxFields
}

// NewInfluxSink creates an InfluxDB sink.
func NewInfluxSink(writer ReadingWriter, fields InfluxFields) *InfluxSink {
	return &InfluxSink{writer: writer, fields: fields}
}

// Name implements Sink.
func (s *InfluxSink) Name() string { return "influxdb" }

// Export implements Sink. Sensors without a reading or with a non-numeric value are skipped.
func (s *InfluxSink) Export(ctx context.Context, snap Snapshot) error {
	for _, ctrl := range snap.Controllers {
		if err := ctx.Err(); err != nil {
			return err
		}

		ctrlID := fmt.Sprint(ctrl[s.fields.Controller])
		sensors, _ := ctrl[controller.SensorsField].([]database.Record)

		for _, sensor := range sensors {
			value, ok := numeric(sensor[s.fields.Value])
			if !ok {
				continue
			}
			name, _ := sensor[s.fields.Name].(string)
			s.writer.WriteSensorReading(ctrlID, fmt.Sprint(sensor[s.fields.Sensor]), name, value, snap.At)
		}
	}
	return nil
}

// numeric converts driver numeric types to float64.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}
