// Package config loads forkcast configuration from a TOML file.
//
// Everything has a default, so no config file is required; a missing file
// yields the defaults and only a malformed file is an error. CLI flags
// override file values (handled by the command layer).
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration.
type Config struct {
	// ModelsDir is where built artifacts are written and loaded from.
	ModelsDir string `toml:"models_dir"`

	Weights    Weights    `toml:"weights"`
	Vectorizer Vectorizer `toml:"vectorizer"`
}

// Weights are the hybrid scoring weights. They are not required to sum
// to 1; emphasis beyond unity is allowed deliberately.
type Weights struct {
	Similarity float64 `toml:"similarity"`
	Rating     float64 `toml:"rating"`
	Popularity float64 `toml:"popularity"`
}

// Vectorizer holds vocabulary-construction options for the build step.
type Vectorizer struct {
	// MinDF of 0 selects the adaptive default (2 for 20+ restaurants,
	// else 1).
	MinDF int `toml:"min_df"`
	// MaxDFRatio of 0 selects the default 0.95.
	MaxDFRatio float64 `toml:"max_df_ratio"`
	Stem       bool    `toml:"stem"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ModelsDir: "models",
		Weights: Weights{
			Similarity: 0.65,
			Rating:     0.25,
			Popularity: 0.10,
		},
	}
}

// Load reads configuration from path, layered over the defaults. An empty
// path or a missing file returns the defaults; a malformed file is an
// error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}
