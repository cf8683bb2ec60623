// Package build implements the build pipeline: a build config naming
// projections and plugins, a FileManifest each plugin writes through, and
// the orchestration that runs each projection's transforms, re-validates,
// then invokes its plugins.
//
// Plugin lookup is a generator-name-to-function dispatch, the same shape
// as a single-generator CLI flow generalized into a data-driven,
// multi-projection pipeline.
package build

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Config is the decoded build-config.json document.
type Config struct {
	Version         string                     `json:"version"`
	Sources         []string                   `json:"sources"`
	Imports         []string                   `json:"imports"`
	OutputDirectory string                     `json:"outputDirectory"`
	Projections     map[string]ProjectionConfig `json:"projections"`
	Plugins         map[string]json.RawMessage `json:"plugins"`
}

// ProjectionConfig is one named projection: an ordered list of transforms
// plus its own plugin settings. "source" always exists implicitly even if
// absent from the config.
type ProjectionConfig struct {
	Transforms []TransformConfig          `json:"transforms"`
	Plugins    map[string]json.RawMessage `json:"plugins"`
	Imports    []string                   `json:"imports"`
	Abstract   bool                       `json:"abstract"`
}

type TransformConfig struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnv implements `${NAME}` substitution with `$` escaping: a
// literal dollar sign is written as `$$`.
func interpolateEnv(text string) string {
	text = strings.ReplaceAll(text, "$$", "\x00")
	text = envVarPattern.ReplaceAllStringFunc(text, func(m string) string {
		name := m[2 : len(m)-1]
		return os.Getenv(name)
	})
	return strings.ReplaceAll(text, "\x00", "$")
}

// LoadConfig decodes a build-config.json document, applying env-var
// interpolation to the raw text before the JSON is parsed.
func LoadConfig(data []byte) (*Config, error) {
	interpolated := interpolateEnv(string(data))
	var cfg Config
	if err := json.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("BUILD_CONFIG: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = "1.0"
	}
	if cfg.Projections == nil {
		cfg.Projections = make(map[string]ProjectionConfig)
	}
	if _, ok := cfg.Projections["source"]; !ok {
		cfg.Projections["source"] = ProjectionConfig{}
	}
	return &cfg, nil
}
