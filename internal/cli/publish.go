package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"cdr-tool/internal/config"
	"cdr-tool/internal/content"
	"cdr-tool/internal/glossary"
	infmongo "cdr-tool/internal/infra/mongo"
	pgstore "cdr-tool/internal/infra/postgres"
	infraredis "cdr-tool/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// publisher is a remote content store that keeps one document per edition.
type publisher interface {
	Source(ctx context.Context, edition string) ([]byte, error)
	Publish(ctx context.Context, edition string, data []byte) error
}

// NewPublishCmd validates a content document and uploads it to the remote store.
func NewPublishCmd(configPath *string) *cobra.Command {
	var edition, file, target, backupDir string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Validate content and publish it to postgres or mongo",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			if edition == "" && file != "" {
				edition = editionFromPath(file)
			}
			if edition == "" {
				edition = cfg.Content.DefaultEdition
			}
			var data []byte
			if file != "" {
				data, err = os.ReadFile(file)
			} else {
				data, err = content.Embedded().Source(edition)
			}
			if err != nil {
				return err
			}

			if target == "" {
				target = cfg.Content.Source
			}
			pub, closeFn, err := openPublisher(ctx, cfg, target)
			if err != nil {
				return err
			}
			defer closeFn()

			backup, err := publishContent(ctx, pub, edition, data, backupDir, time.Now().UTC())
			if err != nil {
				return err
			}
			if backup != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "previous version saved to %s\n", backup)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s to %s\n", edition, target)

			if cfg.Redis.Addr != "" {
				client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
				defer client.Close()
				if err := infraredis.NewContentRepository(client, nil, 0).Invalidate(ctx, edition); err != nil {
					log.Printf("invalidate cached %s: %v", edition, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&edition, "edition", "", "edition key (defaults to the file name or content.default_edition)")
	cmd.Flags().StringVar(&file, "file", "", "content document to publish (defaults to the embedded edition)")
	cmd.Flags().StringVar(&target, "target", "", "postgres or mongo (defaults to content.source)")
	cmd.Flags().StringVar(&backupDir, "backup-dir", ".", "directory for the backup of the previously published version")
	return cmd
}

func openPublisher(ctx context.Context, cfg config.Config, target string) (publisher, func(), error) {
	switch target {
	case config.SourcePostgres:
		if cfg.Postgres.URL == "" {
			return nil, nil, fmt.Errorf("postgres url not configured")
		}
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.NewContentStore(pool), pool.Close, nil
	case config.SourceMongo:
		if cfg.Mongo.URI == "" {
			return nil, nil, fmt.Errorf("mongo uri not configured")
		}
		client, err := infmongo.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		store := infmongo.NewContentStore(client.Database(cfg.Mongo.Database), cfg.Mongo.Collection)
		return store, func() { _ = client.Disconnect(context.Background()) }, nil
	}
	return nil, nil, fmt.Errorf("cannot publish to %q: target must be postgres or mongo", target)
}

// publishContent validates data, saves the currently published version of the
// edition into backupDir and replaces it. It returns the backup path, empty
// when nothing was published before.
func publishContent(ctx context.Context, pub publisher, edition string, data []byte, backupDir string, now time.Time) (string, error) {
	c, err := content.Parse(edition, data)
	if err != nil {
		return "", err
	}
	if err := glossary.Validate(c); err != nil {
		return "", fmt.Errorf("%s does not conform:\n%w", edition, err)
	}

	var backup string
	prev, err := pub.Source(ctx, edition)
	switch {
	case isNotFound(err):
	case err != nil:
		return "", err
	default:
		backup = filepath.Join(backupDir, fmt.Sprintf("%s-%s.bak", edition, now.Format("20060102T150405Z")))
		if err := os.WriteFile(backup, prev, 0o644); err != nil {
			return "", fmt.Errorf("write backup: %w", err)
		}
		log.Printf("backed up %s to %s", edition, backup)
	}

	if err := pub.Publish(ctx, edition, data); err != nil {
		return backup, err
	}
	log.Printf("published %s (%d rules, %d terms)", edition, len(c.Rules()), len(c.Glossary()))
	return backup, nil
}
