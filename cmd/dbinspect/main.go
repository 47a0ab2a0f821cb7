// Package main provides a read-mostly tool to inspect an EduBase database.
//
// It prints the instance counters and a slice of the most recent and most
// popular materials, with their attachment counts, which is usually enough
// to spot a bad migration or a broken seed without opening a sqlite shell.
//
// Usage:
//
//	DB_PATH=~/edubase/edubase.db go run ./cmd/dbinspect
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/edubase4teachers/edubase-server/internal/domain"
	"github.com/edubase4teachers/edubase-server/internal/logger"
	"github.com/edubase4teachers/edubase-server/internal/search"
	"github.com/edubase4teachers/edubase-server/internal/store/sqlite"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/edubase/edubase.db")
	}

	quiet := logger.New(logger.Config{Level: slog.LevelWarn})
	st, err := sqlite.Open(dbPath, quiet)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	stats, err := st.GetStats(ctx)
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}
	fmt.Printf("Users:     %d\n", stats.Users)
	fmt.Printf("Materials: %d\n", stats.Materials)
	fmt.Printf("Downloads: %d\n", stats.Downloads)
	fmt.Println()

	printListing(ctx, st, "Most recent materials", search.Params{Sort: "new", Limit: "5"})
	printListing(ctx, st, "Most popular materials", search.Params{Sort: "popular", Limit: "5"})
}

func printListing(ctx context.Context, st *sqlite.Store, header string, p search.Params) {
	materials, err := st.ListMaterials(ctx, search.Normalize(p))
	if err != nil {
		log.Fatalf("Failed to list materials: %v", err)
	}

	fmt.Printf("--- %s ---\n", header)
	for _, m := range materials {
		fmt.Printf("[%d] %s\n", m.ID, m.Title)
		fmt.Printf("    subject=%s grade=%s type=%s\n", m.Subject, m.Grade, m.Type)
		fmt.Printf("    author=%s views=%d downloads=%d created=%s\n",
			m.AuthorName, m.Views, m.Downloads, m.CreatedAt.Format("2006-01-02"))
		describeFiles(ctx, st, m)
	}
	fmt.Println()
}

func describeFiles(ctx context.Context, st *sqlite.Store, m *domain.Material) {
	count, err := st.CountMaterialFiles(ctx, m.ID)
	if err != nil {
		log.Fatalf("Failed to count files for material %d: %v", m.ID, err)
	}
	switch {
	case count > 0:
		fmt.Printf("    files=%d main=%s\n", count, m.FileName)
	case m.Link != "":
		fmt.Printf("    link=%s\n", m.Link)
	default:
		fmt.Printf("    (no files, no link)\n")
	}
}
