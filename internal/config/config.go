package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "WSTAIL"

type Reconnect struct {
	// MaxAttempts is the number of reconnects after the first connection.
	// 0 disables reconnecting, -1 retries forever.
	MaxAttempts    int           `mapstructure:"max_attempts" validate:"gte=-1"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" validate:"gt=0"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" validate:"gtefield=InitialBackoff"`
}

type Mock struct {
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	Token        string        `mapstructure:"token"`
	PingPeriod   time.Duration `mapstructure:"ping_period" validate:"gt=0"`
	StatusPeriod time.Duration `mapstructure:"status_period" validate:"gt=0"`
	LinePeriod   time.Duration `mapstructure:"line_period" validate:"gt=0"`
}

type Config struct {
	Server           string        `mapstructure:"server" validate:"required,url"`
	Endpoint         string        `mapstructure:"endpoint" validate:"oneof=log-stream logs hardware-status"`
	Container        string        `mapstructure:"container" validate:"required_unless=Endpoint hardware-status"`
	Token            string        `mapstructure:"token"`
	TextPingReply    bool          `mapstructure:"text_ping_reply"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" validate:"gte=0"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	ReadLimit        int64         `mapstructure:"read_limit" validate:"gte=0"`
	Format           string        `mapstructure:"format" validate:"oneof=prefixed plain json"`
	Sanitize         bool          `mapstructure:"sanitize"`
	LogLevel         string        `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
	Reconnect        Reconnect     `mapstructure:"reconnect"`
	Mock             Mock          `mapstructure:"mock"`
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("server", "ws://localhost:8080")
	v.SetDefault("endpoint", "logs")
	v.SetDefault("container", "watchtower")
	v.SetDefault("token", "robotics")
	v.SetDefault("text_ping_reply", false)
	v.SetDefault("handshake_timeout", "10s")
	v.SetDefault("read_timeout", "0s")
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("format", "prefixed")
	v.SetDefault("sanitize", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("reconnect.max_attempts", 0)
	v.SetDefault("reconnect.initial_backoff", "500ms")
	v.SetDefault("reconnect.max_backoff", "30s")
	v.SetDefault("mock.port", 8080)
	v.SetDefault("mock.token", "robotics")
	v.SetDefault("mock.ping_period", "1s")
	v.SetDefault("mock.status_period", "10s")
	v.SetDefault("mock.line_period", "100ms")
}

// Flags registers the command-line overrides understood by Load.
func Flags(fs *pflag.FlagSet) {
	fs.String("config-env", "", "config environment, selects config/config.<env>.yaml")
	fs.String("server", "", "supervisor base url (ws, wss, http or https)")
	fs.String("endpoint", "", "endpoint to tail: log-stream, logs or hardware-status")
	fs.String("container", "", "container name for the log endpoints")
	fs.String("token", "", "bearer token sent in the Authorization header")
	fs.Bool("text-ping-reply", false, `answer text frames starting with "ping" with a "pong" frame`)
	fs.String("format", "", "output format: prefixed, plain or json")
	fs.Int("reconnect", 0, "reconnect attempts after a dropped connection, -1 for unlimited")
	fs.String("log-level", "", "log level: trace, debug, info, warn or error")
}

// MockFlags registers the overrides only the mock supervisor understands.
func MockFlags(fs *pflag.FlagSet) {
	fs.Int("port", 0, "mock supervisor listen port")
}

var flagKeys = map[string]string{
	"server":          "server",
	"endpoint":        "endpoint",
	"container":       "container",
	"token":           "token",
	"text-ping-reply": "text_ping_reply",
	"format":          "format",
	"reconnect":       "reconnect.max_attempts",
	"log-level":       "log_level",
	"port":            "mock.port",
}

// Load reads config/config.<env>.yaml, WSTAIL_* environment variables and
// the flags in fs, in increasing order of precedence. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if fs != nil {
		if f := fs.Lookup("config-env"); f != nil && f.Changed {
			env = f.Value.String()
		}
	}
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Debug().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Debug().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
