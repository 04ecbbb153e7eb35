// Package controller assembles the controllers, sensors and latest readings owned by a user.
package controller

import (
	"context"
	"fmt"

	"github.com/iotnatural/poolwatch-core/internal/infrastructure/config"
	"github.com/iotnatural/poolwatch-core/internal/infrastructure/database"
)

// SensorsField is the key under which a controller's sensors are attached.
const SensorsField = "sensors"

// ControllerDenylist holds the controller attributes never exposed to clients.
var ControllerDenylist = []string{
	"Enabled", "AppType", "SwVersion", "HwVersion", "LocalAccess", "LocalConfigChanged",
	"RemoteConfigChanged", "LastReport", "TimeZone", "RemoteIp", "RemotePort", "CtrlImage",
	"CustomImage", "GroupId", "TokenId", "ActivationCode", "CalibrationCode", "EncKey",
	"ComTimeout", "City", "MacAddress",
}

// SensorDenylist holds the sensor attributes never exposed to clients.
// Value is removed and then replaced by the latest reading.
var SensorDenylist = []string{
	"EventGeneration", "AlarmGeneration", "ActiveStationRequired", "MatureTime",
	"DematureTime", "CtrlId", "UpperThEnabled", "BottomThEnabled", "Value",
	"SlopeFactor", "OffsetFactor", "Units",
}

// Config names the tables and columns read by the aggregator.
type Config struct {
	UserControllersTable string
	ControllersTable     string
	SensorsTable         string
	SensorValuesTable    string

	UserIDColumn     string
	ControllerColumn string
	SensorColumn     string
	TimestampColumn  string
	ValueColumn      string
}

// ConfigFrom extracts the aggregator settings from the schema configuration.
func ConfigFrom(schema config.SchemaConfig) Config {
	return Config{
		UserControllersTable: schema.UserControllersTable,
		ControllersTable:     schema.ControllersTable,
		SensorsTable:         schema.SensorsTable,
		SensorValuesTable:    schema.SensorValuesTable,
		UserIDColumn:         schema.UserIDColumn,
		ControllerColumn:     schema.ControllerColumn,
		SensorColumn:         schema.SensorColumn,
		TimestampColumn:      schema.TimestampColumn,
		ValueColumn:          schema.ValueColumn,
	}
}

// Validate checks every configured name is a plain identifier.
func (c Config) Validate() error {
	for _, name := range []string{
		c.UserControllersTable, c.ControllersTable, c.SensorsTable, c.SensorValuesTable,
		c.UserIDColumn, c.ControllerColumn, c.SensorColumn, c.TimestampColumn, c.ValueColumn,
	} {
		if err := database.ValidateIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}

// Aggregator builds the controller documents for a user.
type Aggregator struct {
	cfg Config
}

// NewAggregator creates an aggregator.
func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// FetchForUser returns every controller owned by userID with its sensors attached.
//
// Each controller has ControllerDenylist removed and coded attributes
// relabelled. Each sensor has SensorDenylist removed and its value set to the
// most recent reading, or nil when it has none. Sensors keep the order the
// database returned them in.
//
// Parameters:
//   - ctx: Context for query cancellation
//   - q: Connection to query
//   - userID: Owner identifier as read from the user record
//
// Returns:
//   - []database.Record: Controllers; empty (never nil) when the user owns none
//   - error: database.ErrInvalidIdentifier or a query error
func (a *Aggregator) FetchForUser(ctx context.Context, q database.Querier, userID any) ([]database.Record, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("controller schema: %w", err)
	}

	ids, err := a.controllerIDs(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []database.Record{}, nil
	}

	controllers, err := database.QueryRecords(ctx, q,
		"SELECT * FROM "+a.cfg.ControllersTable+
			" WHERE "+a.cfg.ControllerColumn+" IN ("+database.Placeholders(len(ids))+")",
		ids...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying controllers: %w", err)
	}

	out := make([]database.Record, 0, len(controllers))
	for _, ctrl := range controllers {
		ctrlID := ctrl[a.cfg.ControllerColumn]

		sensors, err := a.sensors(ctx, q, ctrlID)
		if err != nil {
			return nil, err
		}

		doc := ctrl.Without(ControllerDenylist)
		Remap(doc)
		doc[SensorsField] = sensors
		out = append(out, doc)
	}
	return out, nil
}

// controllerIDs returns the identifiers of the controllers linked to userID.
func (a *Aggregator) controllerIDs(ctx context.Context, q database.Querier, userID any) ([]any, error) {
	links, err := database.QueryRecords(ctx, q,
		"SELECT "+a.cfg.ControllerColumn+" FROM "+a.cfg.UserControllersTable+
			" WHERE "+a.cfg.UserIDColumn+" = ?",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying controller ownership: %w", err)
	}

	ids := make([]any, 0, len(links))
	for _, l := range links {
		ids = append(ids, l[a.cfg.ControllerColumn])
	}
	return ids, nil
}

// sensors returns the filtered sensors of a controller with their latest readings.
func (a *Aggregator) sensors(ctx context.Context, q database.Querier, ctrlID any) ([]database.Record, error) {
	rows, err := database.QueryRecords(ctx, q,
		"SELECT * FROM "+a.cfg.SensorsTable+" WHERE "+a.cfg.ControllerColumn+" = ?",
		ctrlID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sensors of controller %v: %w", ctrlID, err)
	}

	out := make([]database.Record, 0, len(rows))
	for _, s := range rows {
		value, err := a.latestValue(ctx, q, ctrlID, s[a.cfg.SensorColumn])
		if err != nil {
			return nil, err
		}

		doc := s.Without(SensorDenylist)
		doc[a.cfg.ValueColumn] = value
		out = append(out, doc)
	}
	return out, nil
}

// latestValue returns the most recent reading for a sensor, or nil when none exists.
func (a *Aggregator) latestValue(ctx context.Context, q database.Querier, ctrlID, sensorID any) (any, error) {
	rows, err := database.QueryRecords(ctx, q,
		"SELECT "+a.cfg.ValueColumn+" FROM "+a.cfg.SensorValuesTable+
			" WHERE "+a.cfg.ControllerColumn+" = ? AND "+a.cfg.SensorColumn+" = ?"+
			" ORDER BY "+a.cfg.TimestampColumn+" DESC LIMIT 1",
		ctrlID, sensorID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying latest value of sensor %v/%v: %w", ctrlID, sensorID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0][a.cfg.ValueColumn], nil
}
