package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	SidecarName    string   `mapstructure:"sidecar_name"`
	CatalogName    string   `mapstructure:"catalog_name"`
	MetaPrefix     string   `mapstructure:"meta_prefix"`
	MetaTags       bool     `mapstructure:"meta_tags"`
	SkipExtensions []string `mapstructure:"skip_extensions"`
	LogFile        string   `mapstructure:"log_file"`
	ManifestFile   string   `mapstructure:"manifest_file"`
}

// LoadConfig reads kahla.toml from the user config directory, falling back
// to defaults. KAHLA_* environment variables override file values.
func LoadConfig() (*Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to find user config dir: %w", err)
	}
	return loadConfig(viper.New(), filepath.Join(configDir, "kahla"))
}

func loadConfig(v *viper.Viper, dirs ...string) (*Config, error) {
	v.SetConfigName("kahla")
	v.SetConfigType("toml")
	for _, d := range dirs {
		v.AddConfigPath(d)
	}

	v.SetDefault("sidecar_name", ".picasa.ini")
	v.SetDefault("catalog_name", "digikam4.db")
	v.SetDefault("meta_prefix", "pmeta/")
	v.SetDefault("meta_tags", false)
	v.SetDefault("skip_extensions", []string{".jpg", ".png", ".gif"})
	v.SetDefault("log_file", "kahla.log")
	v.SetDefault("manifest_file", "kahla-manifest.jsonl")

	v.SetEnvPrefix("kahla")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// CatalogFile is the catalog database file inside dbDir.
func (c *Config) CatalogFile(dbDir string) string {
	return filepath.Join(dbDir, c.CatalogName)
}
