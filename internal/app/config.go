package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

type fileConfig struct {
	BaseURL   string                `toml:"base_url"`
	Token     string                `toml:"token"`
	TZ        string                `toml:"tz"`
	ActorID   int64                 `toml:"actor_id"`
	GroupID   int64                 `toml:"group_id"`
	Output    string                `toml:"output"`
	Fields    string                `toml:"fields"`
	LogLevel  string                `toml:"log_level"`
	CachePath string                `toml:"cache_path"`
	Profile   string                `toml:"profile"`
	Profiles  map[string]fileConfig `toml:"profiles"`
}

// Precedence, lowest to highest: user config file, project config file,
// explicit --config file, HCAL_* environment, flags.
func resolveGlobalOptions(cmd *cobra.Command, defaults *globalOptions) (*globalOptions, error) {
	resolved := *defaults

	profile := firstNonEmpty(env("HCAL_PROFILE"), defaults.Profile)
	if flagValueChanged(cmd, "profile") {
		profile = defaults.Profile
	}
	if profile == "" {
		profile = "default"
	}
	resolved.Profile = profile

	userPath := defaultUserConfigPath()
	projectPath := ".hcal.toml"
	configPath := firstNonEmpty(env("HCAL_CONFIG"), userPath)
	if flagValueChanged(cmd, "config") {
		configPath = defaults.Config
	}

	if cfg, ok := readConfigFile(userPath); ok {
		applyFileConfig(&resolved, cfg, profile)
	}
	if cfg, ok := readConfigFile(projectPath); ok {
		applyFileConfig(&resolved, cfg, profile)
	}
	if configPath != "" && configPath != userPath && configPath != projectPath {
		if cfg, ok := readConfigFile(configPath); ok {
			applyFileConfig(&resolved, cfg, profile)
		}
	}

	applyEnv(&resolved)
	applyFlags(cmd, &resolved, defaults)

	if resolved.Config == "" {
		resolved.Config = configPath
	}
	if resolved.CachePath == "" {
		resolved.CachePath = defaultCachePath()
	}
	return &resolved, nil
}

func applyFileConfig(dst *globalOptions, cfg fileConfig, profile string) {
	if p, ok := cfg.Profiles[profile]; ok {
		cfg = mergeFileConfig(cfg, p)
	}
	if cfg.BaseURL != "" {
		dst.BaseURL = cfg.BaseURL
	}
	if cfg.Token != "" {
		dst.Token = cfg.Token
	}
	if cfg.TZ != "" {
		dst.TZ = cfg.TZ
	}
	if cfg.ActorID != 0 {
		dst.ActorID = cfg.ActorID
	}
	if cfg.GroupID != 0 {
		dst.GroupID = cfg.GroupID
	}
	if cfg.Fields != "" {
		dst.Fields = cfg.Fields
	}
	if cfg.LogLevel != "" {
		dst.LogLevel = cfg.LogLevel
	}
	if cfg.CachePath != "" {
		dst.CachePath = cfg.CachePath
	}
	if cfg.Output != "" {
		applyOutputMode(dst, cfg.Output)
	}
}

func mergeFileConfig(base, overlay fileConfig) fileConfig {
	if overlay.BaseURL != "" {
		base.BaseURL = overlay.BaseURL
	}
	if overlay.Token != "" {
		base.Token = overlay.Token
	}
	if overlay.TZ != "" {
		base.TZ = overlay.TZ
	}
	if overlay.ActorID != 0 {
		base.ActorID = overlay.ActorID
	}
	if overlay.GroupID != 0 {
		base.GroupID = overlay.GroupID
	}
	if overlay.Output != "" {
		base.Output = overlay.Output
	}
	if overlay.Fields != "" {
		base.Fields = overlay.Fields
	}
	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}
	if overlay.CachePath != "" {
		base.CachePath = overlay.CachePath
	}
	return base
}

func applyEnv(dst *globalOptions) {
	if v := env("HCAL_BASE_URL"); v != "" {
		dst.BaseURL = v
	}
	if v := env("HCAL_TOKEN"); v != "" {
		dst.Token = v
	}
	if v := env("HCAL_TIMEZONE"); v != "" {
		dst.TZ = v
	}
	if v := env("HCAL_ACTOR_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			dst.ActorID = n
		}
	}
	if v := env("HCAL_GROUP_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			dst.GroupID = n
		}
	}
	if v := env("HCAL_FIELDS"); v != "" {
		dst.Fields = v
	}
	if v := env("HCAL_LOG_LEVEL"); v != "" {
		dst.LogLevel = v
	}
	if v := env("HCAL_CACHE_PATH"); v != "" {
		dst.CachePath = v
	}
	if v := env("HCAL_NO_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			dst.NoCache = b
		}
	}
	if v := env("HCAL_OUTPUT"); v != "" {
		applyOutputMode(dst, v)
	}
}

func applyOutputMode(dst *globalOptions, v string) {
	switch strings.ToLower(v) {
	case "json":
		dst.JSON, dst.JSONL, dst.Plain = true, false, false
	case "jsonl":
		dst.JSON, dst.JSONL, dst.Plain = false, true, false
	case "plain":
		dst.JSON, dst.JSONL, dst.Plain = false, false, true
	}
}

func applyFlags(cmd *cobra.Command, dst, fromFlags *globalOptions) {
	copyIfChanged(cmd, "json", func() { dst.JSON = fromFlags.JSON })
	copyIfChanged(cmd, "jsonl", func() { dst.JSONL = fromFlags.JSONL })
	copyIfChanged(cmd, "plain", func() { dst.Plain = fromFlags.Plain })
	copyIfChanged(cmd, "fields", func() { dst.Fields = fromFlags.Fields })
	copyIfChanged(cmd, "quiet", func() { dst.Quiet = fromFlags.Quiet })
	copyIfChanged(cmd, "verbose", func() { dst.Verbose = fromFlags.Verbose })
	copyIfChanged(cmd, "profile", func() { dst.Profile = fromFlags.Profile })
	copyIfChanged(cmd, "config", func() { dst.Config = fromFlags.Config })
	copyIfChanged(cmd, "base-url", func() { dst.BaseURL = fromFlags.BaseURL })
	copyIfChanged(cmd, "token", func() { dst.Token = fromFlags.Token })
	copyIfChanged(cmd, "tz", func() { dst.TZ = fromFlags.TZ })
	copyIfChanged(cmd, "actor", func() { dst.ActorID = fromFlags.ActorID })
	copyIfChanged(cmd, "group", func() { dst.GroupID = fromFlags.GroupID })
	copyIfChanged(cmd, "timeout", func() { dst.Timeout = fromFlags.Timeout })
	copyIfChanged(cmd, "no-cache", func() { dst.NoCache = fromFlags.NoCache })
	copyIfChanged(cmd, "schema-version", func() { dst.SchemaVersion = fromFlags.SchemaVersion })

	// If exactly one output mode flag is explicitly set, it overrides
	// env/config output mode.
	modeSet := 0
	if flagValueChanged(cmd, "json") && fromFlags.JSON {
		modeSet++
	}
	if flagValueChanged(cmd, "jsonl") && fromFlags.JSONL {
		modeSet++
	}
	if flagValueChanged(cmd, "plain") && fromFlags.Plain {
		modeSet++
	}
	if modeSet == 1 {
		if flagValueChanged(cmd, "json") && fromFlags.JSON {
			applyOutputMode(dst, "json")
		}
		if flagValueChanged(cmd, "jsonl") && fromFlags.JSONL {
			applyOutputMode(dst, "jsonl")
		}
		if flagValueChanged(cmd, "plain") && fromFlags.Plain {
			applyOutputMode(dst, "plain")
		}
	}
}

func copyIfChanged(cmd *cobra.Command, name string, fn func()) {
	if flagValueChanged(cmd, name) {
		fn()
	}
}

func flagValueChanged(cmd *cobra.Command, name string) bool {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := cmd.InheritedFlags().Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

func readConfigFile(path string) (fileConfig, bool) {
	if strings.TrimSpace(path) == "" {
		return fileConfig{}, false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, false
	}
	var cfg fileConfig
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return fileConfig{}, false
	}
	return cfg, true
}

func defaultUserConfigPath() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "hcal", "config.toml")
	}
	home := strings.TrimSpace(os.Getenv("HOME"))
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "hcal", "config.toml")
}

func defaultCachePath() string {
	base := defaultUserConfigPath()
	if base == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(base), "snapshots.db")
}

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
