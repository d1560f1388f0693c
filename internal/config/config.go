// Package config loads deployment settings from an optional file and the
// environment.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. CLICKTEST_SSH_PORT.
const EnvPrefix = "CLICKTEST"

// LogSettings controls the process logger.
type LogSettings struct {
	Level      string
	File       string // Empty logs to stderr
	MaxSize    int    // Megabytes before rotation
	MaxBackups int
	MaxAge     int // Days
	Compress   bool
	JSON       bool
}

// SSHSettings controls the SSH front-end.
type SSHSettings struct {
	Host    string
	Port    string
	HostKey string
}

// WebSettings controls the browser front-end.
type WebSettings struct {
	Host           string
	Port           string
	SSHDisplayHost string // Shown on the page as the terminal alternative
}

// StoreSettings selects where results are saved.
type StoreSettings struct {
	Driver  string
	URL     string
	APIKey  string
	Table   string
	Path    string
	Timeout time.Duration
}

// AudioSettings controls local tone playback.
type AudioSettings struct {
	Enabled bool
	Volume  float64
}

// GameSettings holds gameplay overrides.
type GameSettings struct {
	Seed int64 // Zero seeds from the clock
}

// Settings is the full configuration.
type Settings struct {
	Log   LogSettings
	SSH   SSHSettings
	Web   WebSettings
	Store StoreSettings
	Audio AudioSettings
	Game  GameSettings
}

var defaults = map[string]any{
	"log.level":       "info",
	"log.file":        "",
	"log.max_size":    10,
	"log.max_backups": 3,
	"log.max_age":     28,
	"log.compress":    false,
	"log.json":        false,

	"ssh.host":     "::",
	"ssh.port":     "2222",
	"ssh.host_key": "/app/keys/host_key",

	"web.host":             "0.0.0.0",
	"web.port":             "8080",
	"web.ssh_display_host": "your-server.com",

	"store.driver":  "none",
	"store.url":     "",
	"store.api_key": "",
	"store.table":   "game_results",
	"store.path":    "results.jsonl",
	"store.timeout": "10s",

	"audio.enabled": true,
	"audio.volume":  0.5,

	"game.seed": 0,
}

// Unprefixed variable names still honoured for older deployments.
var legacyEnv = map[string]string{
	"ssh.host":             "SSH_HOST",
	"ssh.port":             "SSH_PORT",
	"ssh.host_key":         "SSH_HOST_KEY",
	"web.host":             "WEB_HOST",
	"web.port":             "WEB_PORT",
	"web.ssh_display_host": "SSH_DISPLAY_HOST",
}

// Loader reads Settings through a private viper instance.
type Loader struct {
	v *viper.Viper
}

// NewLoader prepares a loader. With an empty path it looks for
// clicktest.{yaml,toml,json} in the working directory; a missing file is not
// an error. An explicit path must exist.
func NewLoader(path string) *Loader {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, env)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("clicktest")
		v.AddConfigPath(".")
	}
	return &Loader{v: v}
}

// Load reads the config file, if any, and returns the merged settings.
func (l *Loader) Load() (Settings, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, err
		}
	}
	return l.settings(), nil
}

// ConfigFile returns the file in use, or "" when running on defaults.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Watch calls fn with fresh settings whenever the config file changes.
// It does nothing when no file was loaded.
func (l *Loader) Watch(fn func(Settings)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		fn(l.settings())
	})
	l.v.WatchConfig()
}

func (l *Loader) settings() Settings {
	v := l.v
	return Settings{
		Log: LogSettings{
			Level:      cast.ToString(v.Get("log.level")),
			File:       cast.ToString(v.Get("log.file")),
			MaxSize:    cast.ToInt(v.Get("log.max_size")),
			MaxBackups: cast.ToInt(v.Get("log.max_backups")),
			MaxAge:     cast.ToInt(v.Get("log.max_age")),
			Compress:   cast.ToBool(v.Get("log.compress")),
			JSON:       cast.ToBool(v.Get("log.json")),
		},
		SSH: SSHSettings{
			Host:    cast.ToString(v.Get("ssh.host")),
			Port:    cast.ToString(v.Get("ssh.port")),
			HostKey: cast.ToString(v.Get("ssh.host_key")),
		},
		Web: WebSettings{
			Host:           cast.ToString(v.Get("web.host")),
			Port:           cast.ToString(v.Get("web.port")),
			SSHDisplayHost: cast.ToString(v.Get("web.ssh_display_host")),
		},
		Store: StoreSettings{
			Driver:  cast.ToString(v.Get("store.driver")),
			URL:     cast.ToString(v.Get("store.url")),
			APIKey:  cast.ToString(v.Get("store.api_key")),
			Table:   cast.ToString(v.Get("store.table")),
			Path:    cast.ToString(v.Get("store.path")),
			Timeout: cast.ToDuration(v.Get("store.timeout")),
		},
		Audio: AudioSettings{
			Enabled: cast.ToBool(v.Get("audio.enabled")),
			Volume:  cast.ToFloat64(v.Get("audio.volume")),
		},
		Game: GameSettings{
			Seed: cast.ToInt64(v.Get("game.seed")),
		},
	}
}
