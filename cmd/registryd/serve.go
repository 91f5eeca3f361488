package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"provenance/internal/admin"
	athandler "provenance/internal/attestation/handler"
	"provenance/internal/deployment"
	dephandler "provenance/internal/deployment/handler"
	"provenance/internal/events"
	evhandler "provenance/internal/events/handler"
	"provenance/internal/events/sinks"
	idhandler "provenance/internal/identity/handler"
	"provenance/internal/identity/importer"
	jwttoken "provenance/internal/jwt_token"
	"provenance/internal/platform/config"
	"provenance/internal/platform/httpserver"
	"provenance/internal/platform/logger"
	"provenance/internal/platform/metrics"
	"provenance/internal/platform/redis"
	provhandler "provenance/internal/provenance/handler"
	"provenance/internal/ratelimit"
	httptransport "provenance/internal/transport/http"
	"provenance/pkg/requestcontext"
)

const (
	adminTokenIssuer   = "registryd"
	adminTokenAudience = "registryd-admin"
	outboxSize         = 1024
	shutdownTimeout    = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	var (
		envFiles   []string
		importFile string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Deploy the registries and serve the relayer and admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv(envFiles...)
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, importFile)
		},
	}
	cmd.Flags().StringSliceVar(&envFiles, "env-file", nil, "Dotenv files to load (default .env)")
	cmd.Flags().StringVar(&importFile, "import-identities", "", "YAML snapshot of identities to import at startup")
	return cmd
}

// serve wires high-level dependencies and keeps the server lifecycle small. Business logic
// lives in the registry packages.
func serve(ctx context.Context, cfg config.Server, importFile string) error {
	log := logger.New(cfg.Log)
	m := metrics.New()
	health := map[string]httptransport.HealthCheck{}

	store, closeStore, err := openStore(ctx, cfg.Postgres, log)
	if err != nil {
		return err
	}
	defer closeStore()

	outbox := make(chan events.Event, outboxSize)
	publisher := events.NewPublisher(store,
		events.WithPublisherLogger(log),
		events.WithPublisherMetrics(m),
		events.WithOutbox(outbox),
	)

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var limitStore ratelimit.Store = ratelimit.NewInMemoryStore()
	if rdb != nil {
		defer rdb.Close()
		health["redis"] = rdb.Health
		limitStore = ratelimit.NewRedisStore(rdb.Client, "registryd:rl:")
	}
	limiter := ratelimit.New(limitStore, log,
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
		ratelimit.WithLimits(ratelimit.Limits{
			Read:   cfg.RateLimit.Reads,
			Write:  cfg.RateLimit.Writes,
			Window: cfg.RateLimit.Window,
		}),
	)

	eventSinks, closeSinks, err := openSinks(ctx, cfg, rdb, health, log)
	if err != nil {
		return err
	}
	defer closeSinks()

	d, err := deployment.New(ctx, deployment.Config{
		Owner:           cfg.Owner,
		ChainID:         cfg.ChainID,
		RegistrationFee: cfg.RegistrationFee,
		ResolverPrice:   cfg.ResolverPrice,
		MigrationGrace:  cfg.MigrationGrace,
		Publisher:       publisher,
		Logger:          log,
		Metrics:         m,
	})
	if err != nil {
		return fmt.Errorf("deploy registries: %w", err)
	}
	log.InfoContext(ctx, "registries deployed",
		"owner", cfg.Owner.Hex(),
		"relayer", cfg.RelayerAddress().Hex(),
		"chain_id", cfg.ChainID.String(),
		"identity_registry", d.Addresses.IdentityRegistry.Hex(),
		"provenance_registry", d.Addresses.ProvenanceRegistry.Hex(),
		"attestation_registry", d.Addresses.AttestationRegistry.Hex(),
		"wallet_factory", d.Addresses.WalletFactory.Hex(),
		"allowlist_resolver", d.Addresses.AllowlistResolver.Hex(),
		"paid_resolver", d.Addresses.PaidResolver.Hex(),
	)

	if importFile != "" {
		if err := importIdentities(ctx, d, cfg, importFile, log); err != nil {
			return err
		}
	}

	components := func(name string) (admin.Pausable, bool) {
		c, ok := d.Component(name)
		return c, ok
	}
	router := httptransport.NewRouter(httptransport.Config{
		Relayer:        cfg.RelayerAddress(),
		AdminValidator: jwttoken.NewJWTService(cfg.AdminJWTKey, adminTokenIssuer, adminTokenAudience),
		RateLimit:      limiter.Handler,
		Metrics:        promhttp.Handler(),
		Health:         health,
		Logger:         log,
	}, []httptransport.RouteRegistrar{
		idhandler.New(d.IdentityGateway, d.Identities, log),
		provhandler.New(d.ProvenanceGateway, d.Provenance, log),
		athandler.New(d.Schemas, d.Attestations, log),
		evhandler.New(publisher, log),
		dephandler.New(d),
	}, []httptransport.RouteRegistrar{
		admin.New(components, d.ProvenanceGateway, d, d.Allowlist, log),
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return events.NewWorker(outbox, log, m, eventSinks...).Run(gctx)
	})
	g.Go(func() error {
		log.InfoContext(gctx, "starting registryd", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("server stopped")
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openStore uses Postgres when DATABASE_URL is set and an in-memory log otherwise.
func openStore(ctx context.Context, cfg config.PostgresConfig, log *slog.Logger) (events.Store, func(), error) {
	if cfg.URL == "" {
		log.WarnContext(ctx, "DATABASE_URL not set, events are kept in memory")
		return events.NewInMemoryStore(), func() {}, nil
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	store := events.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate event store: %w", err)
	}
	return store, func() { _ = db.Close() }, nil
}

// openSinks connects the configured event sinks and registers their health checks. The
// Redis stream reuses the shared client.
func openSinks(ctx context.Context, cfg config.Server, rdb *redis.Client, health map[string]httptransport.HealthCheck, log *slog.Logger) ([]events.Sink, func(), error) {
	var (
		out     []events.Sink
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if rdb != nil {
		out = append(out, sinks.NewRedisStream(rdb.Client, cfg.Redis.Stream))
		log.InfoContext(ctx, "redis event stream enabled", "stream", cfg.Redis.Stream)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		k, err := sinks.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, k.Close)
		if err := k.EnsureTopic(ctx, 1, 1); err != nil {
			closeAll()
			return nil, nil, err
		}
		out = append(out, k)
		health["kafka"] = k.Health
		log.InfoContext(ctx, "kafka event topic enabled", "topic", cfg.Kafka.Topic)
	}
	return out, closeAll, nil
}

func importIdentities(ctx context.Context, d *deployment.Deployment, cfg config.Server, path string, log *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open identity snapshot: %w", err)
	}
	defer f.Close()

	items, err := importer.Load(f)
	if err != nil {
		return err
	}
	ownerCtx := requestcontext.WithCaller(ctx, cfg.Owner)
	if err := importer.New(d.Identities, cfg.Owner, log).Apply(ownerCtx, items); err != nil {
		return fmt.Errorf("import identities: %w", err)
	}
	return nil
}
