package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edubase4teachers/edubase-server/internal/domain"
	"github.com/edubase4teachers/edubase-server/internal/store"
)

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := insertTestUser(t, s, "a@b.c", "Teacher")

	session := &domain.Session{
		ID:               "sess-abc",
		UserID:           userID,
		RefreshTokenHash: "hash-1",
		UserAgent:        "test-agent",
		IPAddress:        "127.0.0.1",
		CreatedAt:        time.Now(),
		ExpiresAt:        time.Now().Add(24 * time.Hour),
	}
	if err := s.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSessionByTokenHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("GetSessionByTokenHash: %v", err)
	}
	if got.ID != "sess-abc" || got.UserID != userID {
		t.Errorf("got %+v", got)
	}
	if got.UserAgent != "test-agent" || got.IPAddress != "127.0.0.1" {
		t.Errorf("device info mismatch: %+v", got)
	}
	if got.ExpiresAt.Unix() != session.ExpiresAt.Unix() {
		t.Errorf("ExpiresAt: got %v, want %v", got.ExpiresAt, session.ExpiresAt)
	}

	if err := s.DeleteSession(ctx, "sess-abc"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.GetSessionByTokenHash(ctx, "hash-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteSession(ctx, "sess-abc"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for double delete, got %v", err)
	}
}

func TestDeleteUserSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := insertTestUser(t, s, "a@b.c", "Teacher")
	other := insertTestUser(t, s, "b@b.c", "Other")

	for i, uid := range []int64{userID, userID, other} {
		err := s.CreateSession(ctx, &domain.Session{
			ID:               string(rune('a' + i)),
			UserID:           uid,
			RefreshTokenHash: string(rune('h' + i)),
			CreatedAt:        time.Now(),
			ExpiresAt:        time.Now().Add(time.Hour),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if err := s.DeleteUserSessions(ctx, userID); err != nil {
		t.Fatalf("DeleteUserSessions: %v", err)
	}

	// Other user's session survives.
	if _, err := s.GetSessionByTokenHash(ctx, "j"); err != nil {
		t.Errorf("other user's session should survive: %v", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := insertTestUser(t, s, "a@b.c", "Teacher")

	expired := &domain.Session{
		ID: "old", UserID: userID, RefreshTokenHash: "old-hash",
		CreatedAt: time.Now().Add(-48 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	live := &domain.Session{
		ID: "live", UserID: userID, RefreshTokenHash: "live-hash",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := s.CreateSession(ctx, expired); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateSession(ctx, live); err != nil {
		t.Fatal(err)
	}

	n, err := s.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
	if _, err := s.GetSessionByTokenHash(ctx, "live-hash"); err != nil {
		t.Errorf("live session should survive: %v", err)
	}
}
