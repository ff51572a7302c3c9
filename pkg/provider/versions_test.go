package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVariant(t *testing.T) {
	cases := []struct {
		version string
		want    Variant
	}{
		{"0.2.0", V020},
		{"0.3.0", V030},
		{"0.4.0", V040},
		{"0.4.1", V040},
	}
	for _, tc := range cases {
		got, err := ResolveVariant(tc.version)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestResolveVariantRejectsInvalid(t *testing.T) {
	_, err := ResolveVariant("not-a-version")
	assert.Error(t, err)
}

func TestParamSchemaV040RenamesTimeParams(t *testing.T) {
	schema := ParamSchema(V040)
	assert.Equal(t, "start_recorded", schema["start_time"])
	assert.Equal(t, "end_recorded", schema["end_time"])
}
