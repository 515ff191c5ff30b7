// Package config builds the giftswap command line. Every flag can also be set
// through a GIFTSWAP_ prefixed environment variable.
package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/KirkDiggler/giftswap/internal/exchange"
	"github.com/KirkDiggler/giftswap/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds everything the server needs to start
type Config struct {
	Bind           string
	Port           int
	PublicURL      string
	AllowedOrigins []string
	TLSCert        string
	TLSKey         string

	Store         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NATSURL string

	DiscordToken         string
	DiscordApplicationID string
	DiscordGuildID       string
	DiscordChannelID     string

	SettingsFile    string
	MaxRetries      int
	ShutdownTimeout time.Duration

	LogLevel string
	LogJSON  bool

	// Settings are the defaults for new games, read from SettingsFile
	Settings models.Settings
}

// Validate checks flag combinations that cannot work together
func (c *Config) Validate() error {
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	switch c.Store {
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("--redis-addr is required with the redis store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreRedis, StoreMemory)
	}
	if c.DiscordChannelID != "" && c.DiscordToken == "" {
		return errors.New("--discord-channel-id needs --discord-token")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("invalid max retries: %d", c.MaxRetries)
	}
	return nil
}

// Scheme returns the scheme the server listens with
func (c *Config) Scheme() string {
	if c.TLSCert != "" && c.TLSKey != "" {
		return "https"
	}
	return "http"
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// LoadSettings reads game defaults from a YAML file. Keys missing from the
// file keep their built-in defaults; an empty path returns the defaults.
func LoadSettings(path string) (models.Settings, error) {
	settings := exchange.DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return models.Settings{}, fmt.Errorf("failed to parse settings file: %w", err)
	}

	if settings.MaxSteals < 1 {
		return models.Settings{}, fmt.Errorf("max_steals must be at least 1, got %d", settings.MaxSteals)
	}
	if settings.ActivePlayerCount < 1 {
		return models.Settings{}, fmt.Errorf("active_player_count must be at least 1, got %d", settings.ActivePlayerCount)
	}
	if settings.TurnDurationSeconds < 0 {
		return models.Settings{}, fmt.Errorf("turn_duration_seconds cannot be negative, got %d", settings.TurnDurationSeconds)
	}

	return settings, nil
}

// NewCommand builds the root command. run is called with the validated config.
func NewCommand(cfg *Config, version string, run func(ctx context.Context, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("GIFTSWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "giftswap",
		Short:   "Runs a live gift exchange: moderator console API, display stream and Discord announcements.",
		Args:    cobra.ExactArgs(0),
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			settings, err := LoadSettings(cfg.SettingsFile)
			if err != nil {
				return err
			}
			cfg.Settings = settings

			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: GIFTSWAP_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: GIFTSWAP_PORT)")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "external base URL used in QR codes (env: GIFTSWAP_PUBLIC_URL)")
	fs.StringSliceVar(&cfg.AllowedOrigins, "allowed-origins", nil, "CORS origins, any when empty (env: GIFTSWAP_ALLOWED_ORIGINS)")
	fs.StringVar(&cfg.TLSCert, "tls-cert", "", "path to tls certificate (env: GIFTSWAP_TLS_CERT)")
	fs.StringVar(&cfg.TLSKey, "tls-key", "", "path to tls keyfile (env: GIFTSWAP_TLS_KEY)")

	fs.StringVar(&cfg.Store, "store", StoreRedis, "game store, redis or memory (env: GIFTSWAP_STORE)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "localhost:6379", "redis address (env: GIFTSWAP_REDIS_ADDR)")
	fs.StringVar(&cfg.RedisPassword, "redis-password", "", "redis password (env: GIFTSWAP_REDIS_PASSWORD)")
	fs.IntVar(&cfg.RedisDB, "redis-db", 0, "redis database (env: GIFTSWAP_REDIS_DB)")

	fs.StringVar(&cfg.NATSURL, "nats-url", "", "relay snapshots through NATS when set (env: GIFTSWAP_NATS_URL)")

	fs.StringVar(&cfg.DiscordToken, "discord-token", "", "discord bot token (env: GIFTSWAP_DISCORD_TOKEN)")
	fs.StringVar(&cfg.DiscordApplicationID, "discord-application-id", "", "discord application ID (env: GIFTSWAP_DISCORD_APPLICATION_ID)")
	fs.StringVar(&cfg.DiscordGuildID, "discord-guild-id", "", "register commands for one guild only (env: GIFTSWAP_DISCORD_GUILD_ID)")
	fs.StringVar(&cfg.DiscordChannelID, "discord-channel-id", "", "announce opens and steals in this channel (env: GIFTSWAP_DISCORD_CHANNEL_ID)")

	fs.StringVar(&cfg.SettingsFile, "settings", "", "YAML file with default game settings (env: GIFTSWAP_SETTINGS)")
	fs.IntVar(&cfg.MaxRetries, "max-retries", 3, "retries when two actions race on a game (env: GIFTSWAP_MAX_RETRIES)")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 5*time.Second, "time allowed for graceful shutdown (env: GIFTSWAP_SHUTDOWN_TIMEOUT)")

	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn or error (env: GIFTSWAP_LOG_LEVEL)")
	fs.BoolVar(&cfg.LogJSON, "log-json", false, "log JSON instead of console output (env: GIFTSWAP_LOG_JSON)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("giftswap v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
