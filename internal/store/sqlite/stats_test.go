package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/edubase4teachers/edubase-server/internal/domain"
)

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stats, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Users != 0 || stats.Materials != 0 || stats.Downloads != 0 {
		t.Errorf("empty instance: got %+v", stats)
	}

	u1 := insertTestUser(t, s, "a@b.c", "One")
	insertTestUser(t, s, "b@b.c", "Two")

	m1 := insertTestMaterial(t, s, &domain.Material{AuthorID: u1, Title: "M1", CreatedAt: time.Now()})
	insertTestMaterial(t, s, &domain.Material{AuthorID: u1, Title: "M2", CreatedAt: time.Now()})

	for range 3 {
		if err := s.IncrementDownloads(ctx, m1); err != nil {
			t.Fatal(err)
		}
	}

	stats, err = s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Users != 2 {
		t.Errorf("Users: got %d, want 2", stats.Users)
	}
	if stats.Materials != 2 {
		t.Errorf("Materials: got %d, want 2", stats.Materials)
	}
	if stats.Downloads != 3 {
		t.Errorf("Downloads: got %d, want 3", stats.Downloads)
	}
}
