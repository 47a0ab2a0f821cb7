// Package main provides a tool to seed the database with demo data.
//
// It creates a handful of teacher accounts and a spread of materials across
// subjects and grades, with randomized view and download counters, to test
// search ranking, filtering, and the stats endpoint against realistic rows.
//
// Usage:
//
//	DB_PATH=~/edubase/edubase.db go run ./cmd/seed
//	DB_PATH=~/edubase/edubase.db go run ./cmd/seed --materials 50
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/edubase4teachers/edubase-server/internal/auth"
	"github.com/edubase4teachers/edubase-server/internal/domain"
	"github.com/edubase4teachers/edubase-server/internal/logger"
	"github.com/edubase4teachers/edubase-server/internal/store/sqlite"
)

var materialCount = flag.Int("materials", 30, "Number of materials to create")

const seedPassword = "password123"

var seedTeachers = []struct {
	email string
	name  string
}{
	{"alice@school.example", "Alice Varga"},
	{"bela@school.example", "Béla Kiss"},
	{"clara@school.example", "Clara Nagy"},
	{"daniel@school.example", "Dániel Tóth"},
}

var subjects = []string{"Mathematics", "Physics", "Biology", "History", "Literature", "Informatics"}
var grades = []string{"5", "6", "7", "8", "9", "10", "11", "12"}
var types = []string{"notes", "presentation", "worksheet", "test", "program"}

var titleWords = []string{
	"Introduction to", "Practice problems for", "Summary of", "Lesson plan:",
	"Review sheet for", "Interactive demo of", "Midterm prep:",
}
var topics = []string{
	"fractions", "photosynthesis", "the French Revolution", "quadratic equations",
	"Newton's laws", "cell division", "poetry analysis", "sorting algorithms",
	"probability", "electric circuits", "the Cold War", "trigonometry",
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/edubase/edubase.db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	quiet := logger.New(logger.Config{Level: slog.LevelWarn})
	st, err := sqlite.Open(dbPath, quiet)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// Create teacher accounts, reusing any that already exist.
	userIDs := make([]int64, 0, len(seedTeachers))
	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	for _, t := range seedTeachers {
		if existing, err := st.GetUserByEmail(ctx, t.email); err == nil {
			fmt.Printf("User exists: %s (id=%d)\n", t.email, existing.ID)
			userIDs = append(userIDs, existing.ID)
			continue
		}

		id, err := st.CreateUser(ctx, &domain.User{
			Email:        t.email,
			Name:         t.name,
			PasswordHash: hash,
		})
		if err != nil {
			log.Fatalf("Failed to create user %s: %v", t.email, err)
		}
		fmt.Printf("Created user: %s (id=%d, password %q)\n", t.email, id, seedPassword)
		userIDs = append(userIDs, id)
	}

	// Create materials with randomized counters so popularity ordering has
	// something to chew on.
	created := make([]int64, 0, *materialCount)
	for i := 0; i < *materialCount; i++ {
		title := fmt.Sprintf("%s %s",
			titleWords[rng.Intn(len(titleWords))],
			topics[rng.Intn(len(topics))],
		)

		m := &domain.Material{
			AuthorID:    userIDs[rng.Intn(len(userIDs))],
			Title:       title,
			Subject:     subjects[rng.Intn(len(subjects))],
			Grade:       grades[rng.Intn(len(grades))],
			Type:        types[rng.Intn(len(types))],
			Description: fmt.Sprintf("Classroom-ready material on %s.", topics[rng.Intn(len(topics))]),
			Link:        "https://materials.example/" + fmt.Sprint(i),
		}

		id, err := st.CreateMaterial(ctx, m)
		if err != nil {
			log.Fatalf("Failed to create material: %v", err)
		}
		created = append(created, id)

		for v := rng.Intn(200); v > 0; v-- {
			if err := st.IncrementViews(ctx, id); err != nil {
				log.Fatalf("Failed to bump views: %v", err)
			}
		}
		for d := rng.Intn(40); d > 0; d-- {
			if err := st.IncrementDownloads(ctx, id); err != nil {
				log.Fatalf("Failed to bump downloads: %v", err)
			}
		}
	}
	fmt.Printf("Created %d materials\n", len(created))

	// Sprinkle favorites so the favorites filter returns something.
	favorites := 0
	for _, uid := range userIDs {
		for _, mid := range created {
			if rng.Float32() > 0.15 {
				continue
			}
			if err := st.AddFavorite(ctx, uid, mid); err != nil {
				log.Fatalf("Failed to add favorite: %v", err)
			}
			favorites++
		}
	}
	fmt.Printf("Created %d favorites\n", favorites)

	stats, err := st.GetStats(ctx)
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}
	fmt.Printf("\nDatabase now holds %d users, %d materials, %d downloads\n",
		stats.Users, stats.Materials, stats.Downloads)
}
