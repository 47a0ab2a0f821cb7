// Package store defines the persistence interface consumed by the service
// layer, plus the sentinel errors every backend maps its failures onto.
package store

import (
	"context"

	"github.com/edubase4teachers/edubase-server/internal/domain"
	"github.com/edubase4teachers/edubase-server/internal/errors"
	"github.com/edubase4teachers/edubase-server/internal/search"
)

// Sentinel errors returned by store implementations. Callers match with
// errors.Is and translate to transport responses at the boundary.
var (
	ErrNotFound      = errors.ErrNotFound
	ErrAlreadyExists = errors.ErrAlreadyExists
)

// Store is the full persistence surface of the server.
type Store interface {
	UserStore
	SessionStore
	MaterialStore
	FileStore
	FavoriteStore
	StatsStore

	Close() error
}

// UserStore manages teacher accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) (int64, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUserName(ctx context.Context, id int64, name string) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
	PromoteAdmins(ctx context.Context, emails []string) error
}

// SessionStore manages refresh-token sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSessionByTokenHash(ctx context.Context, hash string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID int64) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// MaterialStore manages materials and runs the ranked listing query.
type MaterialStore interface {
	CreateMaterial(ctx context.Context, m *domain.Material) (int64, error)
	GetMaterial(ctx context.Context, id int64) (*domain.Material, error)
	UpdateMaterial(ctx context.Context, m *domain.Material) error
	DeleteMaterial(ctx context.Context, id int64) error
	ListMaterials(ctx context.Context, q search.Query) ([]*domain.Material, error)
	IncrementViews(ctx context.Context, id int64) error
	IncrementDownloads(ctx context.Context, id int64) error
}

// FileStore manages material attachments.
type FileStore interface {
	AddMaterialFile(ctx context.Context, f *domain.MaterialFile) (int64, error)
	GetMaterialFile(ctx context.Context, id int64) (*domain.MaterialFile, error)
	ListFilesByMaterialIDs(ctx context.Context, materialIDs []int64) (map[int64][]*domain.MaterialFile, error)
	DeleteMaterialFile(ctx context.Context, id int64) error
	CountMaterialFiles(ctx context.Context, materialID int64) (int64, error)
	MarkMainFile(ctx context.Context, materialID, fileID int64) error
}

// FavoriteStore manages per-user material bookmarks.
type FavoriteStore interface {
	AddFavorite(ctx context.Context, userID, materialID int64) error
	RemoveFavorite(ctx context.Context, userID, materialID int64) error
	IsFavorite(ctx context.Context, userID, materialID int64) (bool, error)
	ListFavoriteIDs(ctx context.Context, userID int64) ([]int64, error)
}

// StatsStore exposes the public instance counters.
type StatsStore interface {
	GetStats(ctx context.Context) (*domain.Stats, error)
}
