package trip

import "fmt"

// FieldSpec describes one field of the declarative trip schema, adapted
// from the teacher's pkg/manifest.FieldSpec (Type/Required) with Nullable
// added to match original_source/MDSTrip.py's cerberus validation_schema
// ({"type": ..., "nullable": True, "required": False}).
type FieldSpec struct {
	Type     string
	Required bool
	Nullable bool
}

// Schema is the field→spec map, equivalent to the teacher's ToolArgSchema
// but keyed directly (no AllowExtra flag: Validate checks only the fields
// listed here and ignores any others in the payload).
type Schema map[string]FieldSpec

// TripSchema mirrors original_source/MDSTrip.py's validation_schema
// exactly, one field per documented key (spec.md §3).
var TripSchema = Schema{
	"provider_id":     {Type: "string", Required: true},
	"provider_name":   {Type: "string", Required: true},
	"device_id":       {Type: "string", Required: true},
	"vehicle_id":      {Type: "string", Required: true},
	"vehicle_type":    {Type: "string", Required: true},
	"trip_id":         {Type: "string", Required: true},
	"propulsion_type": {Type: "array", Required: true},
	"route":           {Type: "object", Required: true},
	"trip_duration":   {Type: "number", Required: true},
	"trip_distance":   {Type: "number", Required: true},
	"accuracy":        {Type: "number", Required: true},
	"start_time":      {Type: "number", Required: true},
	"end_time":        {Type: "number", Required: true},

	"standard_cost":            {Type: "number", Required: false, Nullable: true},
	"actual_cost":              {Type: "number", Required: false, Nullable: true},
	"publication_time":         {Type: "number", Required: false, Nullable: true},
	"parking_verification_url": {Type: "string", Required: false, Nullable: true},

	"start_latitude":  {Type: "number", Required: true},
	"start_longitude": {Type: "number", Required: true},
	"end_latitude":    {Type: "number", Required: true},
	"end_longitude":   {Type: "number", Required: true},

	"council_district_start": {Type: "string", Required: false, Nullable: true},
	"council_district_end":   {Type: "string", Required: false, Nullable: true},
	"orig_cell_id":           {Type: "string", Required: false, Nullable: true},
	"dest_cell_id":           {Type: "string", Required: false, Nullable: true},
	"census_geoid_start":     {Type: "string", Required: false, Nullable: true},
	"census_geoid_end":       {Type: "string", Required: false, Nullable: true},

	"currency": {Type: "string", Required: false, Nullable: true},
	"start":    {Type: "string", Required: false, Nullable: true},
	"end":      {Type: "string", Required: false, Nullable: true},
}

// ValidationError is a typed validation-boundary error, adapted from the
// teacher's pkg/manifest.ToolArgError.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("trip: field %q: %s", e.Field, e.Message)
}

// Validate checks raw (a loose JSON-decoded provider payload, the
// duck-typed dict spec.md §9 asks us to validate before building a typed
// Trip) against schema, returning every violation found rather than
// stopping at the first.
func Validate(schema Schema, raw map[string]interface{}) []*ValidationError {
	var errs []*ValidationError

	for name, spec := range schema {
		val, exists := raw[name]
		if !exists || val == nil {
			if spec.Required && !(exists && val == nil && spec.Nullable) {
				errs = append(errs, &ValidationError{Field: name, Message: "required field is missing"})
			}
			continue
		}
		if !checkType(val, spec.Type) {
			errs = append(errs, &ValidationError{
				Field:   name,
				Message: fmt.Sprintf("expected type %s, got %T", spec.Type, val),
			})
		}
	}
	return errs
}

func checkType(val interface{}, expected string) bool {
	switch expected {
	case "string":
		_, ok := val.(string)
		return ok
	case "number":
		switch val.(type) {
		case float64, int, int64:
			return true
		}
		return false
	case "boolean":
		_, ok := val.(bool)
		return ok
	case "object":
		_, ok := val.(map[string]interface{})
		return ok
	case "array":
		_, ok := val.([]interface{})
		return ok
	default:
		return true
	}
}
