package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"bookcatalog/internal/config"
	"bookcatalog/internal/platform/logger"
	"bookcatalog/internal/platform/postgres"
	"bookcatalog/internal/user"

	"github.com/jackc/pgx/v5"
)

func main() {
	count := flag.Int("books", 25, "Number of sample books to insert (0 seeds accounts only)")
	flag.Parse()

	cfg, err := config.Load()
	log := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx := context.Background()
	pool, err := postgres.Open(ctx, cfg.DatabaseDSN, cfg.DBMaxConns)
	if err != nil {
		log.WithError(err).WithField("dsn", config.RedactDSN(cfg.DatabaseDSN)).Fatal("failed to connect to database")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.WithError(err).Fatal("failed to apply migrations")
	}

	users := user.NewPostgresRepo(pool, cfg.DBQueryTimeout)
	if err := user.Bootstrap(ctx, users, log, user.DefaultAccounts(cfg.AdminPassword, cfg.UserPassword)); err != nil {
		log.WithError(err).Fatal("failed to seed accounts")
	}

	if *count <= 0 {
		return
	}

	rows := sampleBooks(*count)
	inserted, err := pool.CopyFrom(ctx,
		pgx.Identifier{"books"},
		[]string{"title", "author", "description"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to insert books")
	}

	var total int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM books").Scan(&total); err != nil {
		log.WithError(err).Warn("could not count books")
	}
	log.WithField("inserted", inserted).WithField("total", total).Info("sample books inserted")
}

var (
	titleWords = []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Peace", "Nature", "History", "Future", "Reality", "Wisdom", "Light",
		"Darkness", "World", "Time", "Space", "Mind", "Soul",
	}
	authors = []string{
		"Ada Palmer", "Ted Chiang", "N. K. Jemisin", "Italo Calvino", "Jorge Luis Borges",
		"Clarice Lispector", "Chinua Achebe", "Tove Jansson", "Kazuo Ishiguro", "Olga Tokarczuk",
	}
)

func sampleBooks(n int) [][]any {
	rows := make([][]any, 0, n)
	for i := 0; i < n; i++ {
		word := titleWords[rand.Intn(len(titleWords))]
		rows = append(rows, []any{
			fmt.Sprintf("The %s of Book %d", word, i+1),
			authors[rand.Intn(len(authors))],
			fmt.Sprintf("A book about %s.", word),
		})
	}
	return rows
}
