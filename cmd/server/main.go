package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KirkDiggler/giftswap/internal/broadcast"
	"github.com/KirkDiggler/giftswap/internal/common/clock"
	"github.com/KirkDiggler/giftswap/internal/common/uuid"
	"github.com/KirkDiggler/giftswap/internal/config"
	"github.com/KirkDiggler/giftswap/internal/handlers/discord"
	"github.com/KirkDiggler/giftswap/internal/handlers/web"
	gameRepo "github.com/KirkDiggler/giftswap/internal/repositories/game"
	gameService "github.com/KirkDiggler/giftswap/internal/services/game"
	"github.com/KirkDiggler/giftswap/internal/services/messaging"
	"github.com/KirkDiggler/giftswap/internal/services/scheduler"
	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "could not load .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &config.Config{}
	cobra.CheckErr(config.NewCommand(cfg, releaseVersion, run).ExecuteContext(ctx))
}

func setupLogging(cfg *config.Config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zerolog.SetGlobalLevel(level)

	if !cfg.LogJSON {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := setupLogging(cfg); err != nil {
		return err
	}

	log.Info().
		Str("version", releaseVersion).
		Str("store", cfg.Store).
		Str("addr", cfg.Addr()).
		Msg("starting giftswap")

	var redisClient *redis.Client
	var repo gameRepo.Repository
	switch cfg.Store {
	case config.StoreRedis:
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()

		redisRepo, err := gameRepo.NewRedis(&gameRepo.Config{RedisClient: redisClient})
		if err != nil {
			return fmt.Errorf("failed to create game repository: %w", err)
		}
		repo = redisRepo
	default:
		log.Warn().Msg("using in-memory game store, games are lost on restart")
		repo = gameRepo.NewMemory()
	}

	hub := broadcast.NewHub(broadcast.DefaultHubConfig())
	go hub.Start(ctx)

	// With a shared bus every instance relays into its own hub, so the service
	// publishes to the bus instead of the hub
	var publishers broadcast.Multi
	switch {
	case cfg.NATSURL != "":
		natsCfg := broadcast.DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL

		natsPublisher, err := broadcast.NewNATS(natsCfg)
		if err != nil {
			return fmt.Errorf("failed to create NATS publisher: %w", err)
		}
		defer natsPublisher.Close()

		go func() {
			if err := natsPublisher.Relay(ctx, hub); err != nil {
				log.Error().Err(err).Msg("nats relay stopped")
			}
		}()
		publishers = append(publishers, natsPublisher)
	case redisClient != nil:
		redisPublisher, err := broadcast.NewRedis(&broadcast.RedisConfig{RedisClient: redisClient})
		if err != nil {
			return fmt.Errorf("failed to create Redis publisher: %w", err)
		}

		go func() {
			if err := redisPublisher.Relay(ctx, hub); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("redis relay stopped")
			}
		}()
		publishers = append(publishers, redisPublisher)
	default:
		publishers = append(publishers, hub)
	}

	var session *discordgo.Session
	if cfg.DiscordToken != "" {
		var err error
		session, err = discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			return fmt.Errorf("failed to create Discord session: %w", err)
		}

		if cfg.DiscordChannelID != "" {
			announcer, err := broadcast.NewDiscord(&broadcast.DiscordConfig{
				Session:   session,
				ChannelID: cfg.DiscordChannelID,
			})
			if err != nil {
				return fmt.Errorf("failed to create Discord announcer: %w", err)
			}
			publishers = append(publishers, announcer)
		}
	}

	deadlines, err := scheduler.New(&scheduler.Config{
		Clock:    clock.New(),
		GameRepo: repo,
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	games, err := gameService.New(&gameService.Config{
		DefaultSettings: cfg.Settings,
		MaxRetries:      cfg.MaxRetries,
		GameRepo:        repo,
		Publisher:       publishers,
		Clock:           clock.New(),
		UUIDGenerator:   uuid.New(),
		Deadlines:       deadlines,
	})
	if err != nil {
		return fmt.Errorf("failed to create game service: %w", err)
	}

	messages, err := messaging.NewService(&messaging.ServiceConfig{})
	if err != nil {
		return fmt.Errorf("failed to create messaging service: %w", err)
	}

	go func() {
		if err := deadlines.Start(ctx, games); err != nil {
			log.Error().Err(err).Msg("voting deadline scheduler failed")
		}
	}()

	if session != nil {
		bot, err := discord.New(&discord.Config{
			ApplicationID:    cfg.DiscordApplicationID,
			GuildID:          cfg.DiscordGuildID,
			Session:          session,
			GameService:      games,
			MessagingService: messages,
		})
		if err != nil {
			return fmt.Errorf("failed to create Discord bot: %w", err)
		}
		if err := bot.Start(); err != nil {
			return fmt.Errorf("failed to start Discord bot: %w", err)
		}
		defer func() {
			if err := bot.Stop(); err != nil {
				log.Warn().Err(err).Msg("error stopping discord bot")
			}
		}()
	}

	handler, err := web.New(&web.Config{
		GameService:    games,
		Messaging:      messages,
		Streamer:       hub,
		PublicURL:      cfg.PublicURL,
		AllowedOrigins: cfg.AllowedOrigins,
		HSTS:           cfg.Scheme() == "https",
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP handlers: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.Routes(),
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Msgf("listening on %s://%s", cfg.Scheme(), srv.Addr)

		var err error
		if cfg.Scheme() == "https" {
			err = srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
