package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementSensorReading is the measurement holding sensor values.
const MeasurementSensorReading = "sensor_reading"

// WriteSensorReading records the latest value of one sensor.
//
// The write is non-blocking; points are batched and sent asynchronously.
//
// Parameters:
//   - ctrlID: Controller identifier (tag ctrl_id)
//   - sensorID: Sensor identifier within the controller (tag sensor_id)
//   - name: Sensor display name, stored as a field since it is user-editable
//   - value: The reading
//   - ts: Observation time
//
// Example:
//
//	client.WriteSensorReading("100", "1", "pH", 7.2, time.Now())
func (c *Client) WriteSensorReading(ctrlID, sensorID, name string, value float64, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"value": value,
	}
	if name != "" {
		fields["name"] = name
	}

	point := write.NewPoint(
		MeasurementSensorReading,
		map[string]string{
			"ctrl_id":   ctrlID,
			"sensor_id": sensorID,
		},
		fields,
		ts,
	)

	c.writeAPI.WritePoint(point)
}
