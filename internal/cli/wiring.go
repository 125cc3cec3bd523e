package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"cdr-tool/internal/app"
	"cdr-tool/internal/config"
	"cdr-tool/internal/content"
	"cdr-tool/internal/engine"
	"cdr-tool/internal/infra/memory"
	infmongo "cdr-tool/internal/infra/mongo"
	pgstore "cdr-tool/internal/infra/postgres"
	infraredis "cdr-tool/internal/infra/redis"
	"cdr-tool/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// deps holds everything a command needs, built from config.
type deps struct {
	cfg      config.Config
	loader   content.Loader
	contents app.ContentRepository
	service  *app.SurveyService
	redis    *redis.Client

	closers []func()
}

func (r *deps) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func newDeps(ctx context.Context, cfg config.Config) (*deps, error) {
	d := &deps{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			d.Close()
		}
	}()

	if cfg.Postgres.URL != "" && (cfg.Content.Source == config.SourcePostgres || cfg.Results.Driver == config.DriverPostgres) {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
	}

	loader, err := d.openLoader(ctx)
	if err != nil {
		return nil, err
	}
	d.loader = loader

	if cfg.Redis.Addr != "" {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = d.redis.Close() })
	}

	contentTTL := config.TTLDuration(cfg.Content.TTL, 10*time.Minute)
	var sessions app.SessionRepository
	if d.redis != nil {
		d.contents = infraredis.NewContentRepository(d.redis, loader, contentTTL)
		sessions = infraredis.NewSessionStore(d.redis, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	} else {
		d.contents = memory.NewContentRepository(loader, contentTTL)
		sessions = memory.NewSessionStore()
	}

	results, err := d.openResults(ctx)
	if err != nil {
		return nil, err
	}

	d.service = app.NewSurveyService(sessions, d.contents, results, app.Options{
		Engine:      engine.Options{AllowLeaveCategory: cfg.Survey.AllowLeaveCategory},
		Scorer:      engine.Scorer{ImprovementOnSkip: cfg.ImprovementOnSkip()},
		StrictTerms: cfg.Glossary.Strict,
	})
	ok = true
	return d, nil
}

func (r *deps) openLoader(ctx context.Context) (content.Loader, error) {
	switch r.cfg.Content.Source {
	case config.SourceDir:
		return content.NewFSLoader(os.DirFS(r.cfg.Content.Dir)), nil
	case config.SourcePostgres:
		pool, err := pgxpool.Connect(ctx, r.cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, pool.Close)
		return pgstore.NewContentStore(pool), nil
	case config.SourceMongo:
		store, err := r.openMongo(ctx)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return content.Embedded(), nil
	}
}

func (r *deps) openMongo(ctx context.Context) (*infmongo.ContentStore, error) {
	client, err := infmongo.Connect(ctx, r.cfg.Mongo.URI)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, func() { _ = client.Disconnect(context.Background()) })
	return infmongo.NewContentStore(client.Database(r.cfg.Mongo.Database), r.cfg.Mongo.Collection), nil
}

func (r *deps) openResults(ctx context.Context) (app.ResultStore, error) {
	switch r.cfg.Results.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, r.cfg.Results.SQLitePath)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, func() { _ = store.Close() })
		return store, nil
	case config.DriverPostgres:
		db := openBun(r.cfg.Postgres.URL)
		r.closers = append(r.closers, func() { _ = db.Close() })
		return pgstore.NewResultStore(db), nil
	default:
		log.Printf("results are kept in memory and lost on exit")
		return memory.NewResultStore(), nil
	}
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func loadDeps(ctx context.Context, configPath string) (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	d, err := newDeps(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	return d, nil
}
