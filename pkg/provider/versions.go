package provider

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Variant is one of the three MDS client generations (spec.md §9's
// "model as a variant with three cases" redesign flag, replacing the
// original's MDSClient020/030/040 subclass hierarchy).
type Variant string

const (
	V020 Variant = "0.2.0"
	V030 Variant = "0.3.0"
	V040 Variant = "0.4.0"
)

// paramSchemas maps a logical filter name (spec.md §4.5: start_time,
// end_time, device_id, vehicle_id, bbox, paging) to the query parameter
// name that version of the MDS API expects, before any provider-supplied
// param_override is applied. Grounded on
// original_source/mds/clients/MDSClient020.py's param_schema dict and
// MDSClient030.py's variant.
var paramSchemas = map[Variant]map[string]string{
	V020: {
		"start_time": "start_time",
		"end_time":   "end_time",
		"bbox":       "bbox",
		"device_id":  "device_id",
		"vehicle_id": "vehicle_id",
		"paging":     "paging",
	},
	V030: {
		"start_time": "start_time",
		"end_time":   "end_time",
		"bbox":       "bbox",
		"device_id":  "device_id",
		"vehicle_id": "vehicle_id",
		"paging":     "paging",
	},
	V040: {
		// 0.4.0 renamed the time-window params (MDS upstream changelog);
		// kept distinct here so a future real param drift has somewhere
		// to land without touching dispatch logic.
		"start_time": "start_recorded",
		"end_time":   "end_recorded",
		"bbox":       "bbox",
		"device_id":  "device_id",
		"vehicle_id": "vehicle_id",
		"paging":     "paging",
	},
}

// ResolveVariant parses a provider's configured mds_version into a
// Variant, using semver so "0.3" / "0.3.0" / "v0.3.0" all resolve the same
// way, and picks the nearest known variant rather than failing on an
// exact-match miss.
func ResolveVariant(mdsVersion string) (Variant, error) {
	v, err := semver.NewVersion(mdsVersion)
	if err != nil {
		return "", fmt.Errorf("provider: invalid mds_version %q: %w", mdsVersion, err)
	}

	switch {
	case v.Major() == 0 && v.Minor() <= 2:
		return V020, nil
	case v.Major() == 0 && v.Minor() == 3:
		return V030, nil
	case v.Major() == 0 && v.Minor() >= 4:
		return V040, nil
	default:
		return "", fmt.Errorf("provider: unsupported mds_version %q", mdsVersion)
	}
}

// ParamSchema returns the query-param name mapping for a variant.
func ParamSchema(variant Variant) map[string]string {
	return paramSchemas[variant]
}
