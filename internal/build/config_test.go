package build

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsVersionAndSourceProjection(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{"sources": ["model"]}`))
	require.NoError(t, err)
	assert.Equal(t, "1.0", cfg.Version)
	assert.Equal(t, []string{"model"}, cfg.Sources)
	_, ok := cfg.Projections["source"]
	assert.True(t, ok)
}

func TestLoadConfigRejectsInvalidJSON(t *testing.T) {
	_, err := LoadConfig([]byte(`{not json`))
	assert.Error(t, err)
}

func TestLoadConfigInterpolatesEnvVars(t *testing.T) {
	require.NoError(t, os.Setenv("SMITHY_BUILD_TEST_VAR", "widgets"))
	defer os.Unsetenv("SMITHY_BUILD_TEST_VAR")

	cfg, err := LoadConfig([]byte(`{"outputDirectory": "out/${SMITHY_BUILD_TEST_VAR}"}`))
	require.NoError(t, err)
	assert.Equal(t, "out/widgets", cfg.OutputDirectory)
}

func TestLoadConfigEscapedDollarIsLiteral(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{"outputDirectory": "out/$$literal"}`))
	require.NoError(t, err)
	assert.Equal(t, "out/$literal", cfg.OutputDirectory)
}

func TestLoadConfigPreservesExplicitProjections(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{
		"projections": {
			"release": { "transforms": [{"name": "removeUnreferencedShapes"}] }
		}
	}`))
	require.NoError(t, err)
	release, ok := cfg.Projections["release"]
	require.True(t, ok)
	require.Len(t, release.Transforms, 1)
	assert.Equal(t, "removeUnreferencedShapes", release.Transforms[0].Name)
	_, hasSource := cfg.Projections["source"]
	assert.True(t, hasSource)
}
