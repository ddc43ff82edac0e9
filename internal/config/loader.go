package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/qdash/qdash/internal/errors"
	"github.com/spf13/viper"
)

// schemeAliases maps URL schemes to canonical database types.
var schemeAliases = map[string]string{
	"postgresql":  "postgres",
	"rediss":      "redis",
	"mongodb+srv": "mongodb",
	"sqlserver":   "mssql",
}

// Load reads and validates a dashboard config from the given path.
// The returned Config carries the normalized absolute path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Dashboard config not found: "+path,
				"Run 'qdash init' to create a sample dashboard file")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read dashboard config: "+path,
			"Check the file exists and is valid YAML")
	}

	if err := checkUnknownKeys(path); err != nil {
		return nil, err
	}

	return parseConfig(v, path)
}

// parseConfig converts viper config to a Config with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid dashboard config format",
			"Check the YAML syntax in "+path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cfg.Path = abs

	normalize(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers defaults that are merged under the loaded YAML.
func setDefaults(v *viper.Viper) {
	v.SetDefault("show.type", "table")
	v.SetDefault("show.interval", "30s")
	v.SetDefault("show.bins", 10)
	v.SetDefault("show.orientation", "horizontal")
	v.SetDefault("show.style.width", 80)
	v.SetDefault("show.style.height", 20)
}

// normalize fills derived fields after unmarshal.
func normalize(cfg *Config) {
	if cfg.Database.Type == "" {
		cfg.Database.Type = TypeFromURL(cfg.Database.URL)
	}
	cfg.Database.Type = strings.ToLower(cfg.Database.Type)
	cfg.Show.Type = strings.ToLower(cfg.Show.Type)
	cfg.Show.Orientation = strings.ToLower(cfg.Show.Orientation)
	for i := range cfg.Query.Args {
		cfg.Query.Args[i].Type = strings.ToLower(cfg.Query.Args[i].Type)
		if cfg.Query.Args[i].Type == "" {
			cfg.Query.Args[i].Type = "string"
		}
	}
}

// TypeFromURL infers the database type from a connection URL scheme.
// Returns empty string when the URL has no recognizable scheme.
func TypeFromURL(url string) string {
	idx := strings.Index(url, "://")
	if idx < 0 {
		return ""
	}
	scheme := strings.ToLower(url[:idx])
	if canonical, ok := schemeAliases[scheme]; ok {
		return canonical
	}
	return scheme
}

// ArtifactName returns the artifact base name for a config path:
// the file name without its extension.
func ArtifactName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
