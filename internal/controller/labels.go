package controller

import "github.com/iotnatural/poolwatch-core/internal/infrastructure/database"

// Labels maps coded controller attributes to human-readable values.
var Labels = map[string]map[int64]string{
	"Status": {
		0: "Unassociated",
		1: "Connected",
		2: "Disconnected",
	},
	"Model": {
		4: "Pool Xpert R2",
		6: "Pool Xpert S2",
		8: "Chlorinator Px",
		1: "Chlorinators",
		2: "Submarine",
		9: "Submarine mini",
	},
	"CustomType": {
		0: "Pool Xpert",
		1: "Tessel",
		2: "Nataclor",
	},
	"Indoor": {
		0: "Outdoor",
		1: "Indoor",
	},
	"Climatized": {
		0: "No",
		1: "Yes",
	},
	"WaterType": {
		0: "Tap water",
		1: "Well water",
	},
	"MaterialType": {
		0: "Unknown",
		1: "Cement",
		2: "Fiber",
		3: "Liner",
		4: "Other",
	},
}

// Remap replaces coded attributes of rec with their labels in place.
// Unknown codes and non-integer values are left unchanged.
func Remap(rec database.Record) {
	for field, table := range Labels {
		v, ok := rec[field]
		if !ok {
			continue
		}
		code, ok := integerCode(v)
		if !ok {
			continue
		}
		if label, ok := table[code]; ok {
			rec[field] = label
		}
	}
}

// integerCode reports v as an int64 when it holds an integer type.
func integerCode(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case uint64:
		if n > 1<<62 {
			return 0, false
		}
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint:
		if uint64(n) > 1<<62 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
