package controller

import (
	"testing"

	"github.com/iotnatural/poolwatch-core/internal/infrastructure/database"
)

func TestRemap_Total(t *testing.T) {
	for field, table := range Labels {
		for code, label := range table {
			rec := database.Record{field: code}
			Remap(rec)
			if rec[field] != label {
				t.Errorf("Remap(%s=%d) = %#v, want %q", field, code, rec[field], label)
			}
		}
	}
}

func TestRemap(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		want  any
	}{
		{"int64 code", "Status", int64(1), "Connected"},
		{"int code", "Model", 8, "Chlorinator Px"},
		{"uint8 code", "Indoor", uint8(0), "Outdoor"},
		{"unknown code passes through", "Model", int64(99), int64(99)},
		{"string passes through", "Status", "Connected", "Connected"},
		{"float passes through", "WaterType", 1.5, 1.5},
		{"nil passes through", "MaterialType", nil, nil},
		{"unmapped field untouched", "Name", int64(1), int64(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := database.Record{tt.field: tt.value}
			Remap(rec)
			if rec[tt.field] != tt.want {
				t.Errorf("Remap() %s = %#v, want %#v", tt.field, rec[tt.field], tt.want)
			}
		})
	}
}

func TestRemap_MissingFieldNotAdded(t *testing.T) {
	rec := database.Record{"Name": "Pool"}
	Remap(rec)
	if len(rec) != 1 {
		t.Errorf("Remap() added fields: %#v", rec)
	}
}
