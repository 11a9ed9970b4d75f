package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "BOTTLE"

var ErrInvalidConfig = errors.New("config: invalid value")

type RuntimeConfig struct {
	Env                     string
	LogLevel                string
	StatePath               string
	CacheBackend            string
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	FirebaseProjectID       string
	FirebaseCredentialsFile string
	UserID                  string
	IDToken                 string
	ArrivalWindow           time.Duration
	SchedulerBuffer         int
	PushToken               string
	PushPerMinute           int
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Env:             "development",
		LogLevel:        "info",
		StatePath:       ".bottle",
		CacheBackend:    "sqlite",
		RedisAddr:       "localhost:6379",
		ArrivalWindow:   30 * time.Second,
		SchedulerBuffer: 64,
		PushPerMinute:   20,
	}
}

// RemoteEnabled reports whether a Firebase project is configured.
func (c RuntimeConfig) RemoteEnabled() bool {
	return c.FirebaseProjectID != "" || c.FirebaseCredentialsFile != ""
}

func (c RuntimeConfig) Validate() error {
	switch c.CacheBackend {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("%w: cache_backend %q", ErrInvalidConfig, c.CacheBackend)
	}
	if c.ArrivalWindow <= 0 {
		return fmt.Errorf("%w: arrival_window %s", ErrInvalidConfig, c.ArrivalWindow)
	}
	if c.SchedulerBuffer <= 0 {
		return fmt.Errorf("%w: scheduler_buffer %d", ErrInvalidConfig, c.SchedulerBuffer)
	}
	return nil
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are ignored and existing variables are not overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Loader reads RuntimeConfig from defaults, an optional YAML file and
// BOTTLE_* environment variables, in increasing precedence.
type Loader struct {
	mu sync.Mutex
	v  *viper.Viper
}

// NewLoader reads path, or bottle.yaml from the working directory when path
// is empty. Only an explicit path is required to exist.
func NewLoader(path string) (*Loader, error) {
	v := viper.New()
	setDefaults(v, DefaultRuntimeConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("bottle")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return &Loader{v: v}, nil
}

func (l *Loader) Config() RuntimeConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fromViper(l.v)
}

// ConfigFile is the file the loader read, or "".
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Watch calls fn with the reloaded config every time the config file
// changes. It does nothing when no file was read.
func (l *Loader) Watch(fn func(RuntimeConfig, fsnotify.Event)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		fn(l.Config(), e)
	})
	l.v.WatchConfig()
}

// Load returns the validated config.
func Load(path string) (RuntimeConfig, error) {
	l, err := NewLoader(path)
	if err != nil {
		return RuntimeConfig{}, err
	}
	cfg := l.Config()
	if err := cfg.Validate(); err != nil {
		return RuntimeConfig{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d RuntimeConfig) {
	v.SetDefault("env", d.Env)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("state_path", d.StatePath)
	v.SetDefault("cache_backend", d.CacheBackend)
	v.SetDefault("redis_addr", d.RedisAddr)
	v.SetDefault("redis_password", d.RedisPassword)
	v.SetDefault("redis_db", d.RedisDB)
	v.SetDefault("firebase_project_id", d.FirebaseProjectID)
	v.SetDefault("firebase_credentials_file", d.FirebaseCredentialsFile)
	v.SetDefault("user_id", d.UserID)
	v.SetDefault("id_token", d.IDToken)
	v.SetDefault("arrival_window", d.ArrivalWindow)
	v.SetDefault("scheduler_buffer", d.SchedulerBuffer)
	v.SetDefault("push_token", d.PushToken)
	v.SetDefault("push_per_minute", d.PushPerMinute)
}

func fromViper(v *viper.Viper) RuntimeConfig {
	return RuntimeConfig{
		Env:                     strings.ToLower(strings.TrimSpace(v.GetString("env"))),
		LogLevel:                strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		StatePath:               v.GetString("state_path"),
		CacheBackend:            strings.ToLower(strings.TrimSpace(v.GetString("cache_backend"))),
		RedisAddr:               v.GetString("redis_addr"),
		RedisPassword:           v.GetString("redis_password"),
		RedisDB:                 v.GetInt("redis_db"),
		FirebaseProjectID:       v.GetString("firebase_project_id"),
		FirebaseCredentialsFile: v.GetString("firebase_credentials_file"),
		UserID:                  v.GetString("user_id"),
		IDToken:                 v.GetString("id_token"),
		ArrivalWindow:           v.GetDuration("arrival_window"),
		SchedulerBuffer:         v.GetInt("scheduler_buffer"),
		PushToken:               v.GetString("push_token"),
		PushPerMinute:           v.GetInt("push_per_minute"),
	}
}
