// Package config loads service configuration from defaults, an optional
// CUE file validated against an embedded schema, and the environment.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. ENTITYTREE_LOG_LEVEL.
const EnvPrefix = "ENTITYTREE"

//go:embed config_schema.cue
var configSchema string

// Config holds the service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Access   AccessConfig   `mapstructure:"access"`
	Tree     TreeConfig     `mapstructure:"tree"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AccessConfig struct {
	AnonymousPermissions []string                 `mapstructure:"anonymous_permissions"`
	Accounts             map[string]AccountConfig `mapstructure:"accounts"`
}

type AccountConfig struct {
	// Token is the bearer token the account authenticates with.
	Token       string   `mapstructure:"token"`
	Permissions []string `mapstructure:"permissions"`
	Admin       bool     `mapstructure:"admin"`
}

type TreeConfig struct {
	BasePath string `mapstructure:"base_path"`
	// ForbidOnDenied answers 403 instead of an empty tree when the caller
	// lacks the tree permission.
	ForbidOnDenied bool                     `mapstructure:"forbid_on_denied"`
	DialogTitle    string                   `mapstructure:"dialog_title"`
	DialogWidth    int                      `mapstructure:"dialog_width"`
	Builders       map[string]BuilderConfig `mapstructure:"builders"`
}

// BuilderConfig registers a tree builder for one entity type.
type BuilderConfig struct {
	Permission string `mapstructure:"permission"`
}

type SeedConfig struct {
	Fixtures string `mapstructure:"fixtures"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			URL:    "file:entitytree.db?_pragma=foreign_keys(1)",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Tree: TreeConfig{
			BasePath:    "/entity-reference-tree",
			DialogTitle: "Entity tree",
			DialogWidth: 800,
		},
	}
}

// Load builds the configuration. path names an optional CUE file; an
// empty path skips it.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)
	v.SetDefault("database.driver", defaults.Database.Driver)
	v.SetDefault("database.url", defaults.Database.URL)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("access.anonymous_permissions", []string{})
	v.SetDefault("tree.base_path", defaults.Tree.BasePath)
	v.SetDefault("tree.forbid_on_denied", defaults.Tree.ForbidOnDenied)
	v.SetDefault("tree.dialog_title", defaults.Tree.DialogTitle)
	v.SetDefault("tree.dialog_width", defaults.Tree.DialogWidth)
	v.SetDefault("seed.fixtures", "")

	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unprefixed names kept for existing deployments.
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate checks what the schema cannot see, such as values supplied
// through the environment.
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Server.Port)
	}
	if !strings.HasPrefix(c.Tree.BasePath, "/") {
		return fmt.Errorf("config: tree.base_path %q must start with /", c.Tree.BasePath)
	}
	owners := make(map[string]string, len(c.Access.Accounts))
	for name, a := range c.Access.Accounts {
		if a.Token == "" {
			return fmt.Errorf("config: account %q has no token", name)
		}
		if other, ok := owners[a.Token]; ok {
			return fmt.Errorf("config: accounts %q and %q share a token", other, name)
		}
		owners[a.Token] = name
	}
	return nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("compiling config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return fmt.Errorf("parsing config: %w", userValue.Err())
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("merging config: %w", err)
	}
	return nil
}
