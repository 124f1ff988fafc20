// Command server runs the compliance funnel backend: form submissions and the
// streaming chat relay.
//
//	@title						Compliance Funnel API
//	@version					1.0
//	@description				Onboarding and contact submissions plus a streaming chat assistant.
//	@BasePath					/
//	@schemes					http https
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-compliance-backend/docs"
	"github.com/tbourn/go-compliance-backend/internal/config"
	httpapi "github.com/tbourn/go-compliance-backend/internal/http"
	"github.com/tbourn/go-compliance-backend/internal/llm"
	"github.com/tbourn/go-compliance-backend/internal/observability"
	"github.com/tbourn/go-compliance-backend/internal/repo"
	"github.com/tbourn/go-compliance-backend/internal/services"
	"github.com/tbourn/go-compliance-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; real environment variables win.
	envErr := godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetupLogger(cfg.LogPretty, cfg.OTEL.ServiceName)
	sysutil.SetLogLevel(cfg.LogLevel)
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warn().Err(envErr).Msg("could not load .env")
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prompt, err := llm.LoadPrompt(cfg.Chat.PromptPath)
	if err != nil {
		return err
	}
	prompt = prompt.Resolve(cfg.Chat)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version,
		observability.FunnelAttributes(cfg.Store.Driver, prompt.Model)...)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	backend, err := repo.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}()

	if cfg.Chat.APIKey == "" {
		log.Warn().Msg("no completion provider key configured; /api/chat will answer 502")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Submissions: &services.SubmissionService{Store: backend.Store},
		Chat: &services.ChatService{
			Provider:    llm.NewOpenAI(cfg.Chat.APIKey, cfg.Chat.BaseURL),
			Prompt:      prompt,
			Buffer:      cfg.Chat.Buffer,
			IdleTimeout: cfg.Chat.IdleTimeout,
		},
		Idempotency: backend.Idempotency,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		// Request contexts derive from ctx so open chat streams end on signal.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", cfg.Store.Driver).
			Str("model", prompt.Model).
			Str("version", version).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return <-errCh
}
