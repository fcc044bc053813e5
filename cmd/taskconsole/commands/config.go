package commands

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/taskconsole/internal/app"
)

// envPrefix marks the environment variables that configure the console.
const envPrefix = "TASKCONSOLE_"

// topLevelKeys are the config keys that belong to no section.
var topLevelKeys = map[string]bool{
	"log_level":  true,
	"log_format": true,
}

// loadConfig builds the console configuration. Later sources win:
// TOML file, then TASKCONSOLE_* variables, then flags given on the command
// line. Whatever is still unset falls back to app defaults before validation.
func loadConfig(configPath string, cmd *cli.Command, environFunc func() []string) (*app.Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKey(key), value
		},
		EnvironFunc: environFunc,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	if cmd != nil {
		if err := k.Load(confmap.Provider(extractAndTransformFlags(cmd), "."), nil); err != nil {
			return nil, fmt.Errorf("loading CLI flags: %w", err)
		}
	}

	cfg := &app.Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// envKey maps TASKCONSOLE_AUTH__REDIS_ADDR to auth.redis_addr: a double
// underscore separates the section from the key.
func envKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, envPrefix), "__", "."))
}

// configKey maps a flag name to its config key. Flags follow the same rule
// as the environment with "--" as the section separator, so
// --devserver--access-ttl sets devserver.access_ttl. A flag without a section
// that is not a top-level key (--page, --password, --output) only steers its
// command and is not configuration.
func configKey(flag string) (string, bool) {
	key := strings.ReplaceAll(flag, "--", ".")
	key = strings.ReplaceAll(key, "-", "_")
	if !strings.Contains(key, ".") && !topLevelKeys[key] {
		return "", false
	}
	return key, true
}

// extractAndTransformFlags collects the explicitly set configuration flags of
// cmd and its parents, keyed by config key. Unset flags are left out so their
// defaults cannot shadow the file or the environment.
func extractAndTransformFlags(cmd *cli.Command) map[string]any {
	values := make(map[string]any)

	for _, name := range cmd.FlagNames() {
		if !cmd.IsSet(name) {
			continue
		}
		key, ok := configKey(name)
		if !ok {
			continue
		}
		if value := cmd.Value(name); value != nil {
			values[key] = value
		}
	}

	return values
}
