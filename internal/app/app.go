package app

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"news-digest-bot/internal/config"
	"news-digest-bot/internal/db"
	"news-digest-bot/internal/news"
)

// App is the shared runtime of the server and worker processes.
type App struct {
	Config *config.Config
	DB     *sqlx.DB
	Store  *db.Store
	Source news.Source
	Cache  *news.Cache
}

// New connects to the database, applies the schema and assembles the news pipeline.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	conn, err := db.Connect(cfg.DBConnString)
	if err != nil {
		return nil, err
	}

	store := db.New(conn)
	if err := store.Migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	var source news.Source = news.NewGNewsClient(cfg.NewsAPIToken, cfg.NewsLanguage, cfg.NewsRequestsPerSec)
	if cfg.NewsRSSFallback {
		source = news.NewFallbackSource(source, news.NewGoogleNewsRSS(cfg.NewsLanguage))
	}
	log.Printf("News source: %s", source.Name())

	return &App{
		Config: cfg,
		DB:     conn,
		Store:  store,
		Source: source,
		Cache:  news.NewCache(store, source, cfg.NewsMaxResults),
	}, nil
}

// Refresher keeps cached topics younger than the configured staleness budget.
func (a *App) Refresher() *news.Refresher {
	return news.NewRefresher(a.Cache, a.Store, a.Config.RefreshStaleAfter)
}

func (a *App) Close() error {
	return a.DB.Close()
}
