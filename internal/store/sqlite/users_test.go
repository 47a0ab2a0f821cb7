package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/edubase4teachers/edubase-server/internal/domain"
	"github.com/edubase4teachers/edubase-server/internal/store"
)

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, &domain.User{
		Email:        "Teacher@School.Example",
		Name:         "Test Teacher",
		PasswordHash: "$argon2id$hash",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	got, err := s.GetUser(ctx, id)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "teacher@school.example" {
		t.Errorf("email should be stored lowercased, got %q", got.Email)
	}
	if got.Name != "Test Teacher" {
		t.Errorf("Name: got %q", got.Name)
	}
	if got.IsAdmin {
		t.Error("new user should not be admin")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "dup@school.example", "First")
	_, err := s.CreateUser(ctx, &domain.User{
		Email: "DUP@school.example", Name: "Second", PasswordHash: "h",
	})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetUserByEmailCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := insertTestUser(t, s, "case@school.example", "Teacher")

	got, err := s.GetUserByEmail(ctx, "  CASE@School.Example ")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != id {
		t.Errorf("ID: got %d, want %d", got.ID, id)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUser(context.Background(), 9999)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetAdmin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := insertTestUser(t, s, "admin@school.example", "Admin")

	if err := s.SetAdmin(ctx, id, true); err != nil {
		t.Fatalf("SetAdmin: %v", err)
	}
	got, err := s.GetUser(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsAdmin {
		t.Error("expected admin flag set")
	}

	if err := s.SetAdmin(ctx, 9999, true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestUpdateUserName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := insertTestUser(t, s, "rename@school.example", "Old Name")

	if err := s.UpdateUserName(ctx, id, "New Name"); err != nil {
		t.Fatalf("UpdateUserName: %v", err)
	}
	got, err := s.GetUser(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "New Name" {
		t.Errorf("Name: got %q", got.Name)
	}

	if err := s.UpdateUserName(ctx, 9999, "X"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := insertTestUser(t, s, "rehash@school.example", "User")

	if err := s.UpdateUserPassword(ctx, id, "$argon2id$newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	got, err := s.GetUser(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.PasswordHash != "$argon2id$newhash" {
		t.Errorf("PasswordHash: got %q", got.PasswordHash)
	}

	if err := s.UpdateUserPassword(ctx, 9999, "h"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestPromoteAdmins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := insertTestUser(t, s, "head@school.example", "Head")
	insertTestUser(t, s, "plain@school.example", "Plain")

	// Unknown emails are skipped without error.
	err := s.PromoteAdmins(ctx, []string{"head@school.example", "missing@school.example"})
	if err != nil {
		t.Fatalf("PromoteAdmins: %v", err)
	}

	head, err := s.GetUser(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !head.IsAdmin {
		t.Error("listed email should be promoted")
	}

	plain, err := s.GetUserByEmail(ctx, "plain@school.example")
	if err != nil {
		t.Fatal(err)
	}
	if plain.IsAdmin {
		t.Error("unlisted email should not be promoted")
	}
}
