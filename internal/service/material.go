package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/edubase4teachers/edubase-server/internal/domain"
	domainerrors "github.com/edubase4teachers/edubase-server/internal/errors"
	"github.com/edubase4teachers/edubase-server/internal/logger"
	"github.com/edubase4teachers/edubase-server/internal/search"
	"github.com/edubase4teachers/edubase-server/internal/store"
	"github.com/edubase4teachers/edubase-server/internal/uploads"
)

// MaterialService orchestrates material CRUD, the ranked listing, favorites,
// and attachment handling with ownership enforcement.
type MaterialService struct {
	store  store.Store
	files  *uploads.Storage
	logger *logger.Logger
}

// NewMaterialService creates a new material service.
func NewMaterialService(st store.Store, files *uploads.Storage, log *logger.Logger) *MaterialService {
	return &MaterialService{
		store:  st,
		files:  files,
		logger: log,
	}
}

// CreateMaterialRequest is the metadata payload for a new material.
type CreateMaterialRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Subject     string `json:"subject" validate:"required,max=100"`
	Grade       string `json:"grade" validate:"required,max=100"`
	Type        string `json:"type" validate:"required,max=100"`
	Description string `json:"description" validate:"max=5000"`
	Link        string `json:"link" validate:"omitempty,url,max=2048"`
}

// UpdateMaterialRequest replaces the editable fields of a material.
type UpdateMaterialRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Subject     string `json:"subject" validate:"required,max=100"`
	Grade       string `json:"grade" validate:"required,max=100"`
	Type        string `json:"type" validate:"required,max=100"`
	Description string `json:"description" validate:"max=5000"`
	Link        string `json:"link" validate:"omitempty,url,max=2048"`
}

// Upload is one incoming file from a multipart request.
type Upload struct {
	Name     string
	MimeType string
	Reader   io.Reader
}

// MaterialList is one page of the ranked listing.
type MaterialList struct {
	Materials []*domain.Material
	Limit     int
	Offset    int
	HasMore   bool
}

// List runs the ranked listing over untrusted request parameters. Hostile or
// malformed parameters degrade to defaults rather than failing the request.
func (s *MaterialService) List(ctx context.Context, p search.Params) (*MaterialList, error) {
	q := search.Normalize(p)

	materials, err := s.store.ListMaterials(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}

	if err := s.attachFiles(ctx, materials); err != nil {
		return nil, err
	}

	return &MaterialList{
		Materials: materials,
		Limit:     q.Limit,
		Offset:    q.Offset,
		// A full page suggests more rows behind it. The next request
		// finds out for sure; an exact total would cost a second query.
		HasMore: len(materials) == q.Limit,
	}, nil
}

// Get retrieves one material with its attachments.
func (s *MaterialService) Get(ctx context.Context, materialID int64) (*domain.Material, error) {
	m, err := s.store.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if err := s.attachFiles(ctx, []*domain.Material{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// Create stores a new material together with its uploaded files. The first
// file becomes the main one. A material needs either a file or an external
// link, otherwise there is nothing to share.
func (s *MaterialService) Create(ctx context.Context, author *domain.User, req CreateMaterialRequest, files []Upload) (*domain.Material, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if req.Link == "" && len(files) == 0 {
		return nil, domainerrors.Validation("a file or an external link is required")
	}

	saved, err := s.saveUploads(files)
	if err != nil {
		return nil, err
	}

	m := &domain.Material{
		AuthorID:    author.ID,
		AuthorName:  author.Name,
		Title:       strings.TrimSpace(req.Title),
		Subject:     strings.TrimSpace(req.Subject),
		Grade:       strings.TrimSpace(req.Grade),
		Type:        strings.TrimSpace(req.Type),
		Description: strings.TrimSpace(req.Description),
		Link:        strings.TrimSpace(req.Link),
		Attachments: []*domain.MaterialFile{},
	}
	if len(saved) > 0 {
		main := saved[0]
		m.FileURL = main.file.URLPath
		m.FileName = main.file.OriginalName
		m.Size = main.file.Size
		m.MimeType = main.file.MimeType
	}

	materialID, err := s.store.CreateMaterial(ctx, m)
	if err != nil {
		s.discardUploads(saved)
		return nil, fmt.Errorf("create material: %w", err)
	}
	m.ID = materialID

	for i, sf := range saved {
		f := &domain.MaterialFile{
			MaterialID: materialID,
			FileURL:    sf.file.URLPath,
			FileName:   sf.file.OriginalName,
			IsMain:     i == 0,
			Size:       sf.file.Size,
			MimeType:   sf.file.MimeType,
			BlurHash:   sf.blurHash,
		}
		fileID, err := s.store.AddMaterialFile(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("add material file: %w", err)
		}
		f.ID = fileID
		m.Attachments = append(m.Attachments, f)
	}

	s.logger.Info("material created",
		"material_id", materialID,
		"author_id", author.ID,
		"title", m.Title,
		"files", len(saved),
	)

	return m, nil
}

// Update replaces the editable metadata of a material. Only the author or an
// admin may update.
func (s *MaterialService) Update(ctx context.Context, user *domain.User, materialID int64, req UpdateMaterialRequest) (*domain.Material, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	m, err := s.store.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if !user.CanManage(m) {
		return nil, domainerrors.Forbidden("you cannot modify this material")
	}

	m.Title = strings.TrimSpace(req.Title)
	m.Subject = strings.TrimSpace(req.Subject)
	m.Grade = strings.TrimSpace(req.Grade)
	m.Type = strings.TrimSpace(req.Type)
	m.Description = strings.TrimSpace(req.Description)
	m.Link = strings.TrimSpace(req.Link)

	if err := s.store.UpdateMaterial(ctx, m); err != nil {
		return nil, fmt.Errorf("update material: %w", err)
	}

	if err := s.attachFiles(ctx, []*domain.Material{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a material, its attachment rows, and the files on disk.
// Only the author or an admin may delete.
func (s *MaterialService) Delete(ctx context.Context, user *domain.User, materialID int64) error {
	m, err := s.store.GetMaterial(ctx, materialID)
	if err != nil {
		return err
	}
	if !user.CanManage(m) {
		return domainerrors.Forbidden("you cannot delete this material")
	}

	attachments, err := s.store.ListFilesByMaterialIDs(ctx, []int64{materialID})
	if err != nil {
		return fmt.Errorf("list material files: %w", err)
	}

	if err := s.store.DeleteMaterial(ctx, materialID); err != nil {
		return err
	}

	// Attachment rows are gone via cascade; now reclaim the disk. A failed
	// removal only leaks space, so it is logged and not returned.
	for _, f := range attachments[materialID] {
		if err := s.files.Delete(storedName(f.FileURL)); err != nil {
			s.logger.Warn("failed to remove attachment file",
				"material_id", materialID,
				"file", f.FileURL,
				"error", err,
			)
		}
	}

	s.logger.Info("material deleted", "material_id", materialID, "user_id", user.ID)
	return nil
}

// AddFiles appends attachments to an existing material. If the material has
// no files yet, the first new one becomes the main file.
func (s *MaterialService) AddFiles(ctx context.Context, user *domain.User, materialID int64, files []Upload) (*domain.Material, error) {
	if len(files) == 0 {
		return nil, domainerrors.Validation("no files provided")
	}

	m, err := s.store.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if !user.CanManage(m) {
		return nil, domainerrors.Forbidden("you cannot modify this material")
	}

	existing, err := s.store.CountMaterialFiles(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("count material files: %w", err)
	}

	saved, err := s.saveUploads(files)
	if err != nil {
		return nil, err
	}

	for i, sf := range saved {
		f := &domain.MaterialFile{
			MaterialID: materialID,
			FileURL:    sf.file.URLPath,
			FileName:   sf.file.OriginalName,
			IsMain:     existing == 0 && i == 0,
			Size:       sf.file.Size,
			MimeType:   sf.file.MimeType,
			BlurHash:   sf.blurHash,
		}
		if _, err := s.store.AddMaterialFile(ctx, f); err != nil {
			return nil, fmt.Errorf("add material file: %w", err)
		}
		if f.IsMain {
			s.syncMainFile(ctx, m, f)
		}
	}

	if err := s.attachFiles(ctx, []*domain.Material{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteFile removes one attachment. The last file of a material can only be
// removed when an external link remains, so the material never ends up with
// nothing to offer. Deleting the main file promotes the next attachment.
func (s *MaterialService) DeleteFile(ctx context.Context, user *domain.User, materialID, fileID int64) (*domain.Material, error) {
	m, err := s.store.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if !user.CanManage(m) {
		return nil, domainerrors.Forbidden("you cannot modify this material")
	}

	f, err := s.store.GetMaterialFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f.MaterialID != materialID {
		return nil, domainerrors.NotFound("file not found")
	}

	count, err := s.store.CountMaterialFiles(ctx, materialID)
	if err != nil {
		return nil, fmt.Errorf("count material files: %w", err)
	}
	if count <= 1 && m.Link == "" {
		return nil, domainerrors.Conflict("the last file cannot be removed from a material without a link")
	}

	if err := s.store.DeleteMaterialFile(ctx, fileID); err != nil {
		return nil, err
	}
	if err := s.files.Delete(storedName(f.FileURL)); err != nil {
		s.logger.Warn("failed to remove attachment file",
			"material_id", materialID,
			"file", f.FileURL,
			"error", err,
		)
	}

	if err := s.attachFiles(ctx, []*domain.Material{m}); err != nil {
		return nil, err
	}

	if f.IsMain {
		if len(m.Attachments) > 0 {
			next := m.Attachments[0]
			if err := s.store.MarkMainFile(ctx, materialID, next.ID); err != nil {
				return nil, fmt.Errorf("promote main file: %w", err)
			}
			next.IsMain = true
			s.syncMainFile(ctx, m, next)
		} else {
			m.FileURL = ""
			m.FileName = ""
			m.Size = 0
			m.MimeType = ""
			if err := s.store.UpdateMaterial(ctx, m); err != nil {
				return nil, fmt.Errorf("clear main file: %w", err)
			}
		}
	}

	return m, nil
}

// MarkMain makes the given attachment the main file of the material.
func (s *MaterialService) MarkMain(ctx context.Context, user *domain.User, materialID, fileID int64) (*domain.Material, error) {
	m, err := s.store.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if !user.CanManage(m) {
		return nil, domainerrors.Forbidden("you cannot modify this material")
	}

	if err := s.store.MarkMainFile(ctx, materialID, fileID); err != nil {
		return nil, err
	}

	f, err := s.store.GetMaterialFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	s.syncMainFile(ctx, m, f)

	if err := s.attachFiles(ctx, []*domain.Material{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// Download resolves an attachment for serving and counts the download against
// its material. Returns the file row and its absolute path on disk.
func (s *MaterialService) Download(ctx context.Context, fileID int64) (*domain.MaterialFile, string, error) {
	f, err := s.store.GetMaterialFile(ctx, fileID)
	if err != nil {
		return nil, "", err
	}

	filePath, err := s.files.Path(storedName(f.FileURL))
	if err != nil {
		return nil, "", fmt.Errorf("resolve file path: %w", err)
	}

	if err := s.store.IncrementDownloads(ctx, f.MaterialID); err != nil {
		s.logger.Warn("failed to count download", "material_id", f.MaterialID, "error", err)
	}

	return f, filePath, nil
}

// RecordView counts one view of a material.
func (s *MaterialService) RecordView(ctx context.Context, materialID int64) error {
	return s.store.IncrementViews(ctx, materialID)
}

// Favorite bookmarks a material for the user. Already-favorited is not an
// error.
func (s *MaterialService) Favorite(ctx context.Context, userID, materialID int64) error {
	return s.store.AddFavorite(ctx, userID, materialID)
}

// Unfavorite removes a bookmark. Removing a bookmark that does not exist is
// not an error.
func (s *MaterialService) Unfavorite(ctx context.Context, userID, materialID int64) error {
	return s.store.RemoveFavorite(ctx, userID, materialID)
}

// FavoriteIDs returns the IDs of the user's bookmarked materials, newest
// bookmark first.
func (s *MaterialService) FavoriteIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.store.ListFavoriteIDs(ctx, userID)
}

type savedUpload struct {
	file     *uploads.SavedFile
	blurHash string
}

// saveUploads writes the incoming files to disk. On any failure the files
// already written are removed again.
func (s *MaterialService) saveUploads(files []Upload) ([]savedUpload, error) {
	saved := make([]savedUpload, 0, len(files))
	for _, up := range files {
		sf, err := s.files.Save(up.Name, up.MimeType, up.Reader)
		if err != nil {
			s.discardUploads(saved)
			return nil, err
		}

		su := savedUpload{file: sf}
		if isImageMime(sf.MimeType) {
			su.blurHash = s.computeBlurHash(sf)
		}
		saved = append(saved, su)
	}
	return saved, nil
}

func (s *MaterialService) discardUploads(saved []savedUpload) {
	for _, su := range saved {
		if err := s.files.Delete(su.file.StoredName); err != nil {
			s.logger.Warn("failed to discard upload", "file", su.file.StoredName, "error", err)
		}
	}
}

// computeBlurHash is best-effort; an attachment without a placeholder just
// renders without one.
func (s *MaterialService) computeBlurHash(sf *uploads.SavedFile) string {
	filePath, err := s.files.Path(sf.StoredName)
	if err != nil {
		return ""
	}
	hash, err := uploads.ComputeBlurHash(filePath)
	if err != nil {
		s.logger.Warn("failed to compute blur hash", "file", sf.StoredName, "error", err)
		return ""
	}
	return hash
}

// attachFiles loads the attachment rows for the given materials in one query.
// Materials without attachments get an empty slice so they serialize as [].
func (s *MaterialService) attachFiles(ctx context.Context, materials []*domain.Material) error {
	if len(materials) == 0 {
		return nil
	}

	ids := make([]int64, len(materials))
	for i, m := range materials {
		ids[i] = m.ID
	}

	byMaterial, err := s.store.ListFilesByMaterialIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("list material files: %w", err)
	}

	for _, m := range materials {
		files := byMaterial[m.ID]
		if files == nil {
			files = []*domain.MaterialFile{}
		}
		m.Attachments = files
	}
	return nil
}

// syncMainFile mirrors the main attachment onto the material's legacy file
// columns. Best-effort: the attachment row is already authoritative.
func (s *MaterialService) syncMainFile(ctx context.Context, m *domain.Material, f *domain.MaterialFile) {
	m.FileURL = f.FileURL
	m.FileName = f.FileName
	m.Size = f.Size
	m.MimeType = f.MimeType
	if err := s.store.UpdateMaterial(ctx, m); err != nil {
		s.logger.Warn("failed to sync main file columns", "material_id", m.ID, "error", err)
	}
}

// storedName extracts the on-disk file name from a stored "/uploads/..." URL
// path.
func storedName(fileURL string) string {
	return path.Base(fileURL)
}

func isImageMime(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}
