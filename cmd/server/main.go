package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/moba-match-engine/internal/config"
	"github.com/DoyleJ11/moba-match-engine/internal/httpapi"
	"github.com/DoyleJ11/moba-match-engine/internal/hub"
	"github.com/DoyleJ11/moba-match-engine/internal/livefeed"
	"github.com/DoyleJ11/moba-match-engine/internal/logging"
	"github.com/DoyleJ11/moba-match-engine/internal/match"
	"github.com/DoyleJ11/moba-match-engine/internal/metrics"
	"github.com/DoyleJ11/moba-match-engine/internal/queue"
	"github.com/DoyleJ11/moba-match-engine/internal/settlement"
	"github.com/DoyleJ11/moba-match-engine/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load(".env", "../.env")

	logger, err := logging.New(cfg.LogLevel, cfg.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	rec := metrics.NewRecorder()

	var (
		decks   queue.DeckSource = store.StaticDeckSource{Min: 60, Max: 90}
		history httpapi.HistoryReader
		opts    []settlement.Option
	)
	if cfg.DatabaseURL != "" {
		pool, err := store.OpenPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		decks = store.NewPGDeckSource(pool)

		db, err := store.OpenGorm(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		repo := store.NewHistoryRepo(db)
		history = repo
		opts = append(opts, settlement.WithHistory(repo))
		logger.Info("using postgres for decks and match history")
	} else {
		logger.Warn("DATABASE_URL not set, using static decks without match history")
	}

	var live livefeed.Store = livefeed.NewMemoryStore()
	if cfg.RedisURL != "" {
		rdb, err := livefeed.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		live = livefeed.NewRedisStore(rdb)
		logger.Info("using redis for the live match listing")
	}

	var reporter settlement.Reporter = settlement.LogReporter{Logger: logger.Named("rewards")}
	if cfg.RewardURL != "" {
		reporter = settlement.NewHTTPReporter(cfg.RewardURL, &http.Client{Timeout: 10 * time.Second})
	}
	settler := settlement.New(reporter, logger.Named("settlement"), opts...)

	h := hub.NewHub(ctx, match.Config{
		TurnTime:         cfg.TurnTime,
		SurrenderMinTurn: cfg.SurrenderMinTurn,
		SettleTimeout:    cfg.SettleTimeout,
	}, match.Deps{
		Logger:    logger.Named("match"),
		Settler:   settler,
		Publisher: live,
		Metrics:   rec,
	})
	q := queue.New(decks, h, logger.Named("queue"), rec)
	refresher := livefeed.NewRefresher(live, logger.Named("livefeed"), cfg.LiveRefreshInterval, cfg.LiveStaleAfter)

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Logger:         logger.Named("http"),
			Metrics:        rec,
			Matches:        h,
			Queue:          q,
			Live:           live,
			History:        history,
			AllowedOrigins: cfg.AllowedOrigins,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return refresher.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		refresher.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		default:
		}
		return err
	})
	return g.Wait()
}
