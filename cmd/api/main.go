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

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaogabinete/gabinete/internal/audit"
	"github.com/gestaogabinete/gabinete/internal/auth"
	"github.com/gestaogabinete/gabinete/internal/config"
	"github.com/gestaogabinete/gabinete/internal/db"
	"github.com/gestaogabinete/gabinete/internal/gabinete"
	internalhttp "github.com/gestaogabinete/gabinete/internal/http"
	"github.com/gestaogabinete/gabinete/internal/lgpd"
	"github.com/gestaogabinete/gabinete/internal/mensagem"
	"github.com/gestaogabinete/gabinete/internal/pessoa"
	"github.com/gestaogabinete/gabinete/internal/service"
	"github.com/gestaogabinete/gabinete/internal/storage"
	"github.com/gestaogabinete/gabinete/migrations"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("carregar configuração: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("conectar ao banco: %w", err)
	}
	defer pool.Close()

	if err := migrations.Up(pool); err != nil {
		return err
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("configurar redis: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	var uploader storage.Uploader = storage.NoopUploader{}
	if cfg.Storage.Enabled() {
		s3, err := storage.NewS3Uploader(storage.S3Config{
			Endpoint:     cfg.Storage.Endpoint,
			Region:       cfg.Storage.Region,
			Bucket:       cfg.Storage.Bucket,
			AccessKey:    cfg.Storage.AccessKey,
			SecretKey:    cfg.Storage.SecretKey,
			PublicDomain: cfg.Storage.PublicDomain,
		})
		if err != nil {
			return fmt.Errorf("configurar storage: %w", err)
		}
		uploader = s3
	}

	cipher := lgpd.NewCipher(cfg.LGPDChave)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)

	auditService := audit.NewService(audit.NewPGStore(pool))
	mensagemService := mensagem.NewService(mensagem.NewPGStore(pool), uploader, auditService)
	gabineteStore := gabinete.NewPGStore(pool)
	gabineteService := gabinete.NewService(gabineteStore, auditService, mensagemService)
	pessoaService := pessoa.NewService(pessoa.NewPGStore(pool, cipher), auditService)
	authService := service.NewAuthService(gabineteStore, pool, redisClient, jwtManager,
		cfg.JWTAccessTTL, cfg.JWTRefreshTTL, auditService)

	authHandler := service.NewAuthHandler(authService)
	gabineteHandler := gabinete.NewHandler(gabineteService)
	pessoaHandler := pessoa.NewHandler(pessoaService)
	mensagemHandler := mensagem.NewHandler(mensagemService)
	auditHandler := audit.NewHandler(auditService)

	router := internalhttp.NewRouter(internalhttp.RouterDeps{
		Config:     cfg,
		Pool:       pool,
		JWTManager: jwtManager,
		PublicRoutes: []func(chi.Router){
			authHandler.RegisterPublicRoutes,
		},
		PrivateRoutes: []func(chi.Router){
			authHandler.RegisterPrivateRoutes,
			gabineteHandler.RegisterRoutes,
			pessoaHandler.RegisterRoutes,
			mensagemHandler.RegisterRoutes,
			auditHandler.RegisterRoutes,
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Str("ambiente", cfg.Ambiente).Msg("api iniciada")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("encerrando api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
