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

	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/privcap/internal/analytics"
	"github.com/MrJamesThe3rd/privcap/internal/audit"
	auditStore "github.com/MrJamesThe3rd/privcap/internal/audit/store"
	"github.com/MrJamesThe3rd/privcap/internal/config"
	"github.com/MrJamesThe3rd/privcap/internal/database"
	privcapHttp "github.com/MrJamesThe3rd/privcap/internal/http"
	"github.com/MrJamesThe3rd/privcap/internal/http/auth"
	investmentHandler "github.com/MrJamesThe3rd/privcap/internal/http/investment"
	portfolioHandler "github.com/MrJamesThe3rd/privcap/internal/http/portfolio"
	transferHandler "github.com/MrJamesThe3rd/privcap/internal/http/transfer"
	"github.com/MrJamesThe3rd/privcap/internal/importer"
	"github.com/MrJamesThe3rd/privcap/internal/investment"
	investmentStore "github.com/MrJamesThe3rd/privcap/internal/investment/store"
	"github.com/MrJamesThe3rd/privcap/internal/investor"
	investorStore "github.com/MrJamesThe3rd/privcap/internal/investor/store"
	"github.com/MrJamesThe3rd/privcap/internal/logger"
	"github.com/MrJamesThe3rd/privcap/internal/settlement"
	settlementStore "github.com/MrJamesThe3rd/privcap/internal/settlement/store"
	"github.com/MrJamesThe3rd/privcap/internal/transfer"
	transferStore "github.com/MrJamesThe3rd/privcap/internal/transfer/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty}).
		With().Str("app", cfg.App.Name).Logger()
	logger.SetGlobalLogger(log)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.ConnectionString(), cfg.Pool())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
	}

	authenticator, err := auth.NewAuthenticator(cfg.Auth.Secret, cfg.Auth.Issuer)
	if err != nil {
		return err
	}

	var (
		auditService      = audit.NewService(auditStore.New(db), log)
		investorService   = investor.NewService(investorStore.New(db))
		investmentService = investment.NewService(investmentStore.New(db), log)
		executor          = settlement.NewExecutor(settlementStore.New(db), auditService, log)
		transferService   = transfer.NewService(
			transferStore.New(db), investmentService, investorService, executor, auditService, log,
		)
		analyticsService = analytics.NewService(investmentService, log, analytics.Settings{
			RiskFreeRate:  cfg.Analytics.RiskFreeRate,
			VaRConfidence: cfg.Analytics.VaRConfidence,
		})
		importService = importer.NewService()
	)

	router := privcapHttp.New(
		privcapHttp.Options{Log: log, Auth: authenticator, AllowedOrigins: cfg.CORS.AllowedOrigins},
		transferHandler.NewHandler(transferService),
		investmentHandler.NewHandler(investmentService, importService),
		portfolioHandler.NewHandler(analyticsService),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
