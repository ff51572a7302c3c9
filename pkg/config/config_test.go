package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresBucketAndCredentials(t *testing.T) {
	t.Setenv("ATD_MDS_BUCKET", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("ATD_MDS_SETTINGS", "config/settings.json")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresSettingsPathNotProvidersPath(t *testing.T) {
	t.Setenv("ATD_MDS_BUCKET", "bucket")
	t.Setenv("AWS_ACCESS_KEY_ID", "key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("ATD_MDS_SETTINGS", "")
	t.Setenv("ATD_MDS_PROVIDERS", "config/providers.json")

	_, err := Load()
	require.Error(t, err, "ATD_MDS_SETTINGS must be set explicitly; ATD_MDS_PROVIDERS is not a fallback")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ATD_MDS_BUCKET", "bucket")
	t.Setenv("AWS_ACCESS_KEY_ID", "key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("ATD_MDS_SETTINGS", "config/settings.json")
	t.Setenv("ATD_MDS_RUN_MODE", "")
	t.Setenv("ATD_MDS_MAX_THREADS", "")
	t.Setenv("ATD_MDS_MAX_PAGES", "")
	t.Setenv("ATD_MDS_RETRY_BASE_MS", "")
	t.Setenv("MDS_TIMEZONE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StageStaging, cfg.Stage)
	assert.Equal(t, 1, cfg.MaxThreads)
	assert.Equal(t, 1000, cfg.MaxPages)
	assert.Equal(t, "America/Chicago", cfg.Location)
}
