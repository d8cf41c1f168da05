package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. CATALOG_STORAGE_PASSWORD.
const EnvPrefix = "CATALOG"

// Loader layers configuration sources, lowest precedence first: Default,
// the config file, a dotenv file, CATALOG_* environment variables and bound
// command-line flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader seeded with Default.
func NewLoader() *Loader {
	v := viper.New()
	d := Default()
	v.SetDefault("job", d.Job)
	v.SetDefault("source.path", "")
	v.SetDefault("source.comma", d.Source.Comma)
	v.SetDefault("source.retries", d.Source.Retries)
	v.SetDefault("storage.kind", d.Storage.Kind)
	v.SetDefault("storage.host", "")
	v.SetDefault("storage.port", 0)
	v.SetDefault("storage.user", "")
	v.SetDefault("storage.password", "")
	v.SetDefault("storage.database", "")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.schema_path", "")
	v.SetDefault("runtime.batch_size", d.Runtime.BatchSize)
	v.SetDefault("runtime.max_error_details", d.Runtime.MaxErrorDetails)
	v.SetDefault("relations", d.Relations)
	v.SetDefault("metrics.backend", d.Metrics.Backend)
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.datadog_addr", "")
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("log.mode", d.Log.Mode)
	v.SetDefault("log.level", d.Log.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlag makes flag f override key when it was set on the command line.
func (l *Loader) BindFlag(key string, f *pflag.Flag) error {
	if f == nil {
		return errors.Errorf("config: no flag for key %q", key)
	}
	return errors.Wrapf(l.v.BindPFlag(key, f), "config: bind %s", key)
}

// Load reads file (YAML, JSON or TOML by extension; optional) and envFile
// (optional; ".env" is tried when empty and silently skipped if absent), then
// decodes the merged result. The returned Config is not validated.
func (l *Loader) Load(file, envFile string) (Config, error) {
	if err := loadDotenv(envFile); err != nil {
		return Config{}, err
	}
	if file != "" {
		l.v.SetConfigFile(file)
		if err := l.v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "config: read %s", file)
		}
	}
	var c Config
	if err := l.v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "config: decode")
	}
	return c, nil
}

// loadDotenv exports variables from path without overriding ones already in
// the environment.
func loadDotenv(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "config: env file %s", path)
	}
	return errors.Wrapf(godotenv.Load(path), "config: env file %s", path)
}
