package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KirkDiggler/giftswap/internal/exchange"
	"github.com/KirkDiggler/giftswap/internal/models"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
	dir string
}

func (s *ConfigTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

// execute runs the command with args and returns the config it ran with
func (s *ConfigTestSuite) execute(args ...string) (*Config, error) {
	cfg := &Config{}
	var got *Config

	cmd := NewCommand(cfg, "test", func(ctx context.Context, c *Config) error {
		got = c
		return nil
	})
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return got, err
}

func (s *ConfigTestSuite) writeFile(name, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *ConfigTestSuite) TestDefaults() {
	cfg, err := s.execute()
	s.Require().NoError(err)

	s.Equal("0.0.0.0", cfg.Bind)
	s.Equal(8080, cfg.Port)
	s.Equal(StoreRedis, cfg.Store)
	s.Equal("localhost:6379", cfg.RedisAddr)
	s.Equal(3, cfg.MaxRetries)
	s.Equal(5*time.Second, cfg.ShutdownTimeout)
	s.Equal(exchange.DefaultSettings(), cfg.Settings)
	s.Equal("http", cfg.Scheme())
	s.Equal("0.0.0.0:8080", cfg.Addr())
}

func (s *ConfigTestSuite) TestFlags() {
	cfg, err := s.execute(
		"--port", "9000",
		"--store", "memory",
		"--allowed-origins", "https://a.example.com,https://b.example.com",
		"--tls-cert", "cert.pem",
		"--tls-key", "key.pem",
	)
	s.Require().NoError(err)

	s.Equal(9000, cfg.Port)
	s.Equal(StoreMemory, cfg.Store)
	s.Equal([]string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	s.Equal("https", cfg.Scheme())
}

func (s *ConfigTestSuite) TestEnvironment() {
	s.T().Setenv("GIFTSWAP_PORT", "9090")
	s.T().Setenv("GIFTSWAP_STORE", "memory")
	s.T().Setenv("GIFTSWAP_NATS_URL", "nats://localhost:4222")

	cfg, err := s.execute()
	s.Require().NoError(err)

	s.Equal(9090, cfg.Port)
	s.Equal(StoreMemory, cfg.Store)
	s.Equal("nats://localhost:4222", cfg.NATSURL)
}

func (s *ConfigTestSuite) TestFlagsBeatEnvironment() {
	s.T().Setenv("GIFTSWAP_PORT", "9090")

	cfg, err := s.execute("--port", "7000")
	s.Require().NoError(err)
	s.Equal(7000, cfg.Port)
}

func (s *ConfigTestSuite) TestValidate() {
	testCases := []struct {
		name string
		args []string
	}{
		{"tls cert without key", []string{"--tls-cert", "cert.pem"}},
		{"bad port", []string{"--port", "70000"}},
		{"unknown store", []string{"--store", "postgres"}},
		{"redis without address", []string{"--redis-addr", ""}},
		{"channel without token", []string{"--discord-channel-id", "123"}},
		{"negative retries", []string{"--max-retries", "-1"}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.execute(tc.args...)
			s.Error(err)
		})
	}
}

func (s *ConfigTestSuite) TestSettingsFile() {
	path := s.writeFile("settings.yaml", "max_steals: 2\nactive_player_count: 3\n")

	cfg, err := s.execute("--settings", path)
	s.Require().NoError(err)

	s.Equal(models.Settings{
		MaxSteals:           2,
		TurnDurationSeconds: exchange.DefaultSettings().TurnDurationSeconds,
		ActivePlayerCount:   3,
	}, cfg.Settings)
}

func (s *ConfigTestSuite) TestLoadSettings_Errors() {
	_, err := LoadSettings(filepath.Join(s.dir, "missing.yaml"))
	s.Error(err)

	_, err = LoadSettings(s.writeFile("broken.yaml", "max_steals: [\n"))
	s.Error(err)

	_, err = LoadSettings(s.writeFile("zero.yaml", "max_steals: 0\n"))
	s.Error(err)

	_, err = LoadSettings(s.writeFile("slots.yaml", "active_player_count: 0\n"))
	s.Error(err)

	_, err = LoadSettings(s.writeFile("negative.yaml", "turn_duration_seconds: -5\n"))
	s.Error(err)
}

func (s *ConfigTestSuite) TestLoadSettings_EmptyPath() {
	settings, err := LoadSettings("")
	s.Require().NoError(err)
	s.Equal(exchange.DefaultSettings(), settings)
}
