// README: Config loader with env defaults for HTTP, logging, lifecycle, chat, event sinks and place lookups.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type LifecycleConfig struct {
	Tick              time.Duration
	FinishProbability float64
	RandSeed          int64
	SeedHistory       bool
}

type ChatConfig struct {
	ReplyDelay time.Duration
	ReplyText  string
}

type Config struct {
	HTTP struct {
		Addr string
	}
	Log struct {
		Level  string
		Format string
	}
	Lifecycle LifecycleConfig
	Chat      ChatConfig
	Redis     struct {
		Addr    string
		Channel string
	}
	DB struct {
		DSN string
	}
	AMQP struct {
		URL      string
		Exchange string
	}
	Places struct {
		GeminiKey string
		MapsKey   string
	}
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("QUICKRIDE_HTTP_ADDR", ":8080")
	cfg.Log.Level = envOrDefault("QUICKRIDE_LOG_LEVEL", "info")
	cfg.Log.Format = envOrDefault("QUICKRIDE_LOG_FORMAT", "text")

	cfg.Lifecycle.Tick = envOrDefaultDuration("QUICKRIDE_TICK", 4*time.Second)
	cfg.Lifecycle.FinishProbability = envOrDefaultFloat("QUICKRIDE_FINISH_PROBABILITY", 0.05)
	cfg.Lifecycle.RandSeed = envOrDefaultInt64("QUICKRIDE_RAND_SEED", 0)
	cfg.Lifecycle.SeedHistory = envOrDefaultBool("QUICKRIDE_SEED_HISTORY", true)

	cfg.Chat.ReplyDelay = envOrDefaultDuration("QUICKRIDE_REPLY_DELAY", 1500*time.Millisecond)
	cfg.Chat.ReplyText = envOrDefault("QUICKRIDE_REPLY_TEXT", "Entendido, estou a caminho!")

	cfg.Redis.Addr = os.Getenv("QUICKRIDE_REDIS_ADDR")
	cfg.Redis.Channel = envOrDefault("QUICKRIDE_REDIS_CHANNEL", "quickride:events")
	cfg.DB.DSN = os.Getenv("QUICKRIDE_DB_DSN")
	cfg.AMQP.URL = os.Getenv("QUICKRIDE_AMQP_URL")
	cfg.AMQP.Exchange = envOrDefault("QUICKRIDE_AMQP_EXCHANGE", "quickride.events")

	cfg.Places.GeminiKey = os.Getenv("QUICKRIDE_GEMINI_API_KEY")
	cfg.Places.MapsKey = os.Getenv("QUICKRIDE_MAPS_API_KEY")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Lifecycle.Tick <= 0 {
		return fmt.Errorf("QUICKRIDE_TICK must be positive, got %s", c.Lifecycle.Tick)
	}
	if c.Chat.ReplyDelay <= 0 {
		return fmt.Errorf("QUICKRIDE_REPLY_DELAY must be positive, got %s", c.Chat.ReplyDelay)
	}
	if p := c.Lifecycle.FinishProbability; p < 0 || p > 1 {
		return fmt.Errorf("QUICKRIDE_FINISH_PROBABILITY must be within [0,1], got %v", p)
	}
	if strings.TrimSpace(c.Chat.ReplyText) == "" {
		return fmt.Errorf("QUICKRIDE_REPLY_TEXT must not be blank")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "1" || v == "true" || v == "yes"
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
