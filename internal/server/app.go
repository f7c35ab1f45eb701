// Package server wires the duet gateway together: database, migrations,
// profile seeding, the gRPC service and the metrics endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/duet/internal/logging"
	"github.com/dmitrijs2005/duet/internal/server/config"
	"github.com/dmitrijs2005/duet/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/duet/internal/server/services"

	gs "github.com/dmitrijs2005/duet/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	profiles *services.ProfileService
	records  *services.RecordService
	blobs    *services.BlobService
	metrics  *gs.Metrics
}

// NewApp opens the database, migrates it and seeds the partner profiles.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSONLogger(os.Stdout, level)

	db, rm, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	logger.Info(ctx, "Database ready", "dialect", string(rm.Dialect()))

	ps := services.NewProfileService(db, rm, c)
	if err := ps.Seed(ctx, c.Partners, c.InitialPin); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		profiles: ps,
		records:  services.NewRecordService(db, rm),
		blobs:    services.NewBlobService(c),
		metrics:  gs.NewMetrics(),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a signal arrives or one of the servers fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.profiles, app.records, app.blobs, app.metrics, app.config.SecretKey)
		return s.Run(ctx)
	})

	if app.config.MetricsAddr != "" {
		g.Go(func() error {
			return gs.RunMetricsServer(ctx, app.config.MetricsAddr, app.metrics, app.logger)
		})
	}

	err := g.Wait()
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "closing database", "error", cerr)
	}
	app.logger.Info(ctx, "Stopped")
	return err
}
