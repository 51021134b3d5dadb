package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	clientHandler "github.com/ItsLhuis/mxt-sub001/internal/client/handler"
	clientModels "github.com/ItsLhuis/mxt-sub001/internal/client/models"
	clientService "github.com/ItsLhuis/mxt-sub001/internal/client/service"
	equipmentHandler "github.com/ItsLhuis/mxt-sub001/internal/equipment/handler"
	equipmentModels "github.com/ItsLhuis/mxt-sub001/internal/equipment/models"
	equipmentService "github.com/ItsLhuis/mxt-sub001/internal/equipment/service"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/builder"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/cache"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/descriptor"
	historyHandler "github.com/ItsLhuis/mxt-sub001/internal/interaction/handler"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/metrics"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/outbox"
	tracking "github.com/ItsLhuis/mxt-sub001/internal/interaction/service"
	"github.com/ItsLhuis/mxt-sub001/internal/interaction/visibility"
	jwttoken "github.com/ItsLhuis/mxt-sub001/internal/jwt_token"
	"github.com/ItsLhuis/mxt-sub001/internal/platform/config"
	"github.com/ItsLhuis/mxt-sub001/internal/platform/httpserver"
	"github.com/ItsLhuis/mxt-sub001/internal/platform/kafka"
	"github.com/ItsLhuis/mxt-sub001/internal/platform/logger"
	"github.com/ItsLhuis/mxt-sub001/internal/platform/redis"
	repairHandler "github.com/ItsLhuis/mxt-sub001/internal/repair/handler"
	repairModels "github.com/ItsLhuis/mxt-sub001/internal/repair/models"
	repairService "github.com/ItsLhuis/mxt-sub001/internal/repair/service"
	httptransport "github.com/ItsLhuis/mxt-sub001/internal/transport/http"
	userHandler "github.com/ItsLhuis/mxt-sub001/internal/user/handler"
	userService "github.com/ItsLhuis/mxt-sub001/internal/user/service"
	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
	"github.com/ItsLhuis/mxt-sub001/pkg/platform/circuit"
)

// main loads configuration and hands over to run; business logic lives in
// the internal service packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	m := metrics.New()

	st, err := openStorage(ctx, cfg, m, log)
	if err != nil {
		return err
	}
	defer st.Close()

	checks := map[string]httptransport.Check{}
	if st.db != nil {
		checks["postgres"] = st.db.PingContext
	}

	recorderOpts := []tracking.Option{tracking.WithMetrics(m), tracking.WithLogger(log)}
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if rc != nil {
		defer rc.Close()
		checks["redis"] = rc.Health
		recorderOpts = append(recorderOpts, tracking.WithCache(cache.NewRedisHistory(rc.Client, cache.WithTTL(cfg.Redis.HistoryTTL))))
		log.Info("history cache enabled", "ttl", cfg.Redis.HistoryTTL)
	}

	policy, err := visibility.ParsePolicy(cfg.HistoryViewerRoles)
	if err != nil {
		return fmt.Errorf("history viewer roles: %w", err)
	}
	fields := descriptor.NewRegistry().MustRegister(
		clientModels.ClientFields,
		clientModels.ContactFields,
		equipmentModels.Fields,
		repairModels.Fields,
	)

	users := userService.New(st.users, log)
	recorder := tracking.New(
		st.interactions,
		st.tx,
		builder.New(users, builder.WithLogger(log)),
		visibility.NewFilter(policy, fields),
		recorderOpts...,
	)

	clients := clientService.New(st.clients, recorder,
		clientService.WithDependents(st.equipment),
		clientService.WithLogger(log),
	)
	equipment := equipmentService.New(st.equipment, st.clients, recorder,
		equipmentService.WithDependents(st.repairs),
		equipmentService.WithLogger(log),
	)
	repairs := repairService.New(st.repairs, st.equipment, recorder,
		repairService.WithLogger(log),
	)

	if cfg.BootstrapAdmin != "" {
		admin, err := users.EnsureUser(ctx, cfg.BootstrapAdmin, string(domain.RoleAdmin))
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		log.Info("bootstrap admin ready", "user_id", admin.ID, "username", admin.Username)
	}

	g, gctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		if st.db == nil {
			log.Warn("KAFKA_BROKERS ignored: the outbox requires DATABASE_URL")
		} else {
			producer, err := kafka.NewProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
			if err != nil {
				return err
			}
			defer producer.Close()
			if err := producer.EnsureTopic(ctx, 1, 1); err != nil {
				log.Warn("could not ensure interactions topic", "topic", cfg.Kafka.Topic, "error", err)
			}
			worker := outbox.NewWorker(outbox.NewPostgresStore(), producer, st.tx,
				outbox.WithInterval(cfg.Kafka.PollInterval),
				outbox.WithBatchSize(cfg.Kafka.BatchSize),
				outbox.WithMetrics(m),
				outbox.WithBreaker(circuit.New("kafka",
					circuit.WithFailureThreshold(cfg.Kafka.BreakerThreshold),
					circuit.WithCooldown(cfg.Kafka.BreakerCooldown),
				)),
				outbox.WithLogger(log),
			)
			g.Go(func() error {
				if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("outbox: %w", err)
				}
				return nil
			})
			log.Info("outbox publisher started", "topic", cfg.Kafka.Topic)
		}
	}

	attacher := historyHandler.NewHistoryAttacher(recorder)
	tokens := jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience))
	router := httptransport.NewRouter(log, tokens,
		httptransport.Options{AllowedOrigins: cfg.CORSAllowedOrigins, Checks: checks},
		userHandler.New(users, log),
		clientHandler.New(clients, attacher, log),
		equipmentHandler.New(equipment, attacher, log),
		repairHandler.New(repairs, attacher, log),
		historyHandler.New(recorder, log),
	)
	srv := httpserver.New(cfg.Addr, router, log)

	g.Go(func() error {
		log.Info("starting mxt server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
