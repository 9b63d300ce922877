package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/agendamento/internal/agency"
	"github.com/gestaozabele/agendamento/internal/agenda"
	"github.com/gestaozabele/agendamento/internal/auth"
	"github.com/gestaozabele/agendamento/internal/config"
	"github.com/gestaozabele/agendamento/internal/db"
	internalhttp "github.com/gestaozabele/agendamento/internal/http"
	"github.com/gestaozabele/agendamento/internal/mailer"
	"github.com/gestaozabele/agendamento/internal/repo"
	"github.com/gestaozabele/agendamento/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	repository := repo.New(pool)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(repository, redisClient, jwtManager, cfg.JWTRefreshTTL)

	directory, err := agency.LoadFile(cfg.AgenciesFile)
	if err != nil {
		return fmt.Errorf("orgaos: %w", err)
	}

	var sender mailer.Mailer = mailer.NewMockMailer()
	if cfg.MailWebhookURL != "" {
		sender = mailer.NewWebhookMailer(cfg.MailWebhookURL)
	}

	store := agenda.NewStore(agenda.NewRedisPersistence(redisClient, agenda.DefaultKey))
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("agendamentos: %w", err)
	}
	agendaService := agenda.NewService(directory, store, sender, redisClient)

	handler, err := internalhttp.NewRouter(cfg, pool, redisClient, authService, agendaService, directory)
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
