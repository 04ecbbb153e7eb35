// Package influxdb records sensor readings in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes and health monitoring.
//
// Every controller refresh writes one sensor_reading point per sensor that
// has a numeric latest value:
//
//	sensor_reading,ctrl_id=100,sensor_id=1 value=7.2,name="pH"
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteSensorReading("100", "1", "pH", 7.2, time.Now())
package influxdb
