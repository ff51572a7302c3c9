// Package geo implements GeoEnricher (spec.md §4.6): a startup-built
// bounding-box R-tree over three static GeoJSON layers, queried per-trip
// for the polygon (if any) containing a point.
package geo

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/rtree"

	"github.com/cityofaustin/atd-mds-go/internal/errkit"
)

// featureCollectionSchema is the standard GeoJSON FeatureCollection JSON
// Schema, embedded so startup validation never depends on network access.
const featureCollectionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["type", "features"],
  "properties": {
    "type": {"const": "FeatureCollection"},
    "features": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type", "geometry", "properties"],
        "properties": {"type": {"const": "Feature"}}
      }
    }
  }
}`

// LayerName identifies one of the three static geo layers spec.md §4.6
// names, each keyed by a stable identifier property.
type LayerName string

const (
	LayerCensusTracts     LayerName = "census_tracts"
	LayerCouncilDistricts LayerName = "council_districts"
	LayerHexGrid          LayerName = "hex_grid"
)

// idProperty returns the GeoJSON feature property holding this layer's
// stable identifier, per spec.md §3's GeoLayer type.
func idProperty(name LayerName) string {
	switch name {
	case LayerCensusTracts:
		return "GEOID10"
	case LayerCouncilDistricts:
		return "district_n"
	case LayerHexGrid:
		return "id"
	default:
		return "id"
	}
}

// layer holds one parsed GeoJSON FeatureCollection plus its R-tree of
// feature bounding boxes, keyed by feature index (spec.md §4.6 step 1).
type layer struct {
	name       LayerName
	collection *geojson.FeatureCollection
	index      rtree.RTree
}

func loadLayer(name LayerName, path string) (*layer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errkit.New(errkit.KindConfigMissing, "geo.loadLayer", fmt.Errorf("%s: %w", name, err))
	}

	if err := validateFeatureCollection(raw); err != nil {
		return nil, errkit.New(errkit.KindConfigMissing, "geo.loadLayer", fmt.Errorf("%s: %w", name, err))
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, errkit.New(errkit.KindConfigMissing, "geo.loadLayer", fmt.Errorf("%s: parse: %w", name, err))
	}

	l := &layer{name: name, collection: fc}
	for i, f := range fc.Features {
		bound := f.Geometry.Bound()
		min := [2]float64{bound.Min.X(), bound.Min.Y()}
		max := [2]float64{bound.Max.X(), bound.Max.Y()}
		l.index.Insert(min, max, i)
	}
	return l, nil
}

func validateFeatureCollection(raw []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("featurecollection.json", strings.NewReader(featureCollectionSchema)); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	sch, err := compiler.Compile("featurecollection.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode geojson: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}

// featureID reads the feature's stable identifier property for this
// layer, returning "" if absent.
func (l *layer) featureID(f *geojson.Feature) string {
	v, ok := f.Properties[idProperty(l.name)]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// candidates returns the feature indices whose bounding box contains pt.
func (l *layer) candidates(pt orb.Point) []int {
	var out []int
	l.index.Search(
		[2]float64{pt.X(), pt.Y()},
		[2]float64{pt.X(), pt.Y()},
		func(min, max [2]float64, value interface{}) bool {
			out = append(out, value.(int))
			return true
		},
	)
	return out
}
