package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/edubase4teachers/edubase-server/internal/domain"
	"github.com/edubase4teachers/edubase-server/internal/search"
	"github.com/edubase4teachers/edubase-server/internal/service"
)

func (s *Server) registerMaterialRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMaterials",
		Method:      http.MethodGet,
		Path:        "/api/v1/materials",
		Summary:     "List materials",
		Description: "Returns a ranked page of materials. All parameters are optional; malformed values fall back to defaults instead of failing.",
		Tags:        []string{"Materials"},
	}, s.handleListMaterials)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMaterial",
		Method:      http.MethodGet,
		Path:        "/api/v1/materials/{id}",
		Summary:     "Get material",
		Tags:        []string{"Materials"},
	}, s.handleGetMaterial)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateMaterial",
		Method:      http.MethodPut,
		Path:        "/api/v1/materials/{id}",
		Summary:     "Update material",
		Description: "Replaces the editable metadata. Only the author or an admin may update.",
		Tags:        []string{"Materials"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateMaterial)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteMaterial",
		Method:      http.MethodDelete,
		Path:        "/api/v1/materials/{id}",
		Summary:     "Delete material",
		Tags:        []string{"Materials"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteMaterial)

	huma.Register(s.api, huma.Operation{
		OperationID: "recordMaterialView",
		Method:      http.MethodPost,
		Path:        "/api/v1/materials/{id}/view",
		Summary:     "Count a view",
		Tags:        []string{"Materials"},
	}, s.handleRecordView)

	huma.Register(s.api, huma.Operation{
		OperationID: "favoriteMaterial",
		Method:      http.MethodPut,
		Path:        "/api/v1/materials/{id}/favorite",
		Summary:     "Favorite material",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "unfavoriteMaterial",
		Method:      http.MethodDelete,
		Path:        "/api/v1/materials/{id}/favorite",
		Summary:     "Unfavorite material",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnfavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFavorites",
		Method:      http.MethodGet,
		Path:        "/api/v1/favorites",
		Summary:     "List favorite material IDs",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListFavorites)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteMaterialFile",
		Method:      http.MethodDelete,
		Path:        "/api/v1/materials/{id}/files/{fileID}",
		Summary:     "Delete attachment",
		Description: "Removes one attachment. The last file can only go when the material keeps an external link.",
		Tags:        []string{"Files"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteFile)

	huma.Register(s.api, huma.Operation{
		OperationID: "markMainFile",
		Method:      http.MethodPut,
		Path:        "/api/v1/materials/{id}/files/{fileID}/main",
		Summary:     "Mark attachment as main",
		Tags:        []string{"Files"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMarkMain)

	// Multipart endpoints bypass the OpenAPI layer.
	s.router.Post("/api/v1/materials", s.handleCreateMaterial)
	s.router.Post("/api/v1/materials/{id}/files", s.handleAddFiles)
}

// === DTOs ===

// MaterialFileResponse is one attachment of a material.
type MaterialFileResponse struct {
	ID        int64     `json:"id" doc:"File ID"`
	FileURL   string    `json:"file_url" doc:"Public URL path of the file"`
	FileName  string    `json:"file_name" doc:"Original file name"`
	IsMain    bool      `json:"is_main" doc:"Whether this is the main file"`
	Size      int64     `json:"size,omitempty" doc:"Size in bytes"`
	MimeType  string    `json:"mime_type,omitempty" doc:"MIME type"`
	BlurHash  string    `json:"blur_hash,omitempty" doc:"Placeholder hash for images"`
	CreatedAt time.Time `json:"created_at" doc:"Upload timestamp"`
}

// MaterialResponse is a material with its author and attachments.
type MaterialResponse struct {
	ID          int64                  `json:"id" doc:"Material ID"`
	AuthorID    int64                  `json:"author_id" doc:"Author user ID"`
	AuthorName  string                 `json:"author_name" doc:"Author display name"`
	Title       string                 `json:"title" doc:"Title"`
	Subject     string                 `json:"subject" doc:"Subject"`
	Grade       string                 `json:"grade" doc:"Grade"`
	Type        string                 `json:"type" doc:"Material type"`
	Description string                 `json:"description,omitempty" doc:"Description"`
	Link        string                 `json:"link,omitempty" doc:"External link"`
	FileURL     string                 `json:"file_url,omitempty" doc:"Main file URL path"`
	FileName    string                 `json:"file_name,omitempty" doc:"Main file name"`
	Size        int64                  `json:"size,omitempty" doc:"Main file size in bytes"`
	MimeType    string                 `json:"mime_type,omitempty" doc:"Main file MIME type"`
	Views       int64                  `json:"views" doc:"View counter"`
	Downloads   int64                  `json:"downloads" doc:"Download counter"`
	CreatedAt   time.Time              `json:"created_at" doc:"Creation timestamp"`
	Attachments []MaterialFileResponse `json:"attachments" doc:"All files of the material"`
}

// MaterialsPage is one page of the listing.
type MaterialsPage struct {
	Materials []MaterialResponse `json:"materials" doc:"Materials in ranked order"`
	Limit     int                `json:"limit" doc:"Applied page size"`
	Offset    int                `json:"offset" doc:"Applied offset"`
	HasMore   bool               `json:"has_more" doc:"Whether another page may exist"`
}

// ListMaterialsInput carries the raw listing parameters. They are typed as
// strings so malformed numbers degrade to defaults instead of a 400.
type ListMaterialsInput struct {
	Query    string `query:"q" doc:"Full-text search term"`
	Subject  string `query:"subject" doc:"Subject filter"`
	Grade    string `query:"grade" doc:"Grade filter"`
	Type     string `query:"type" doc:"Type filter"`
	Limit    string `query:"limit" doc:"Page size, 1-100, default 20"`
	Offset   string `query:"offset" doc:"Offset, 0-10000, default 0"`
	Sort     string `query:"sort" doc:"new, popular, or relevance"`
	Favorite bool   `query:"favorite" doc:"Only the caller's favorites (requires auth)"`
	Mine     bool   `query:"mine" doc:"Only the caller's own materials (requires auth)"`
}

// ListMaterialsOutput wraps a listing page for Huma.
type ListMaterialsOutput struct {
	Body MaterialsPage
}

// MaterialIDInput addresses one material.
type MaterialIDInput struct {
	ID int64 `path:"id" doc:"Material ID"`
}

// MaterialFileIDInput addresses one attachment of a material.
type MaterialFileIDInput struct {
	ID     int64 `path:"id" doc:"Material ID"`
	FileID int64 `path:"fileID" doc:"File ID"`
}

// UpdateMaterialBody is the request body for a metadata update.
type UpdateMaterialBody struct {
	Title       string `json:"title" doc:"Title"`
	Subject     string `json:"subject" doc:"Subject"`
	Grade       string `json:"grade" doc:"Grade"`
	Type        string `json:"type" doc:"Material type"`
	Description string `json:"description,omitempty" doc:"Description"`
	Link        string `json:"link,omitempty" doc:"External link"`
}

// UpdateMaterialInput wraps the update request for Huma.
type UpdateMaterialInput struct {
	ID   int64 `path:"id" doc:"Material ID"`
	Body UpdateMaterialBody
}

// MaterialOutput wraps one material for Huma.
type MaterialOutput struct {
	Body MaterialResponse
}

// FavoritesResponse lists the caller's bookmarked material IDs.
type FavoritesResponse struct {
	MaterialIDs []int64 `json:"material_ids" doc:"Favorited material IDs, newest first"`
}

// FavoritesOutput wraps the favorites response for Huma.
type FavoritesOutput struct {
	Body FavoritesResponse
}

func mapMaterialFile(f *domain.MaterialFile) MaterialFileResponse {
	return MaterialFileResponse{
		ID:        f.ID,
		FileURL:   f.FileURL,
		FileName:  f.FileName,
		IsMain:    f.IsMain,
		Size:      f.Size,
		MimeType:  f.MimeType,
		BlurHash:  f.BlurHash,
		CreatedAt: f.CreatedAt,
	}
}

func mapMaterial(m *domain.Material) MaterialResponse {
	attachments := make([]MaterialFileResponse, 0, len(m.Attachments))
	for _, f := range m.Attachments {
		attachments = append(attachments, mapMaterialFile(f))
	}
	return MaterialResponse{
		ID:          m.ID,
		AuthorID:    m.AuthorID,
		AuthorName:  m.AuthorName,
		Title:       m.Title,
		Subject:     m.Subject,
		Grade:       m.Grade,
		Type:        m.Type,
		Description: m.Description,
		Link:        m.Link,
		FileURL:     m.FileURL,
		FileName:    m.FileName,
		Size:        m.Size,
		MimeType:    m.MimeType,
		Views:       m.Views,
		Downloads:   m.Downloads,
		CreatedAt:   m.CreatedAt,
		Attachments: attachments,
	}
}

// === Handlers ===

func (s *Server) handleListMaterials(ctx context.Context, input *ListMaterialsInput) (*ListMaterialsOutput, error) {
	params := search.Params{
		Term:    input.Query,
		Subject: input.Subject,
		Grade:   input.Grade,
		Type:    input.Type,
		Limit:   input.Limit,
		Offset:  input.Offset,
		Sort:    input.Sort,
	}

	if input.Favorite {
		userID, err := GetUserID(ctx)
		if err != nil {
			return nil, err
		}
		params.FavoriteOfUserID = userID
	}

	if input.Mine {
		userID, err := GetUserID(ctx)
		if err != nil {
			return nil, err
		}
		params.AuthorID = userID
	}

	page, err := s.services.Material.List(ctx, params)
	if err != nil {
		return nil, err
	}

	materials := make([]MaterialResponse, 0, len(page.Materials))
	for _, m := range page.Materials {
		materials = append(materials, mapMaterial(m))
	}

	return &ListMaterialsOutput{Body: MaterialsPage{
		Materials: materials,
		Limit:     page.Limit,
		Offset:    page.Offset,
		HasMore:   page.HasMore,
	}}, nil
}

func (s *Server) handleGetMaterial(ctx context.Context, input *MaterialIDInput) (*MaterialOutput, error) {
	m, err := s.services.Material.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &MaterialOutput{Body: mapMaterial(m)}, nil
}

func (s *Server) handleUpdateMaterial(ctx context.Context, input *UpdateMaterialInput) (*MaterialOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	m, err := s.services.Material.Update(ctx, user, input.ID, service.UpdateMaterialRequest{
		Title:       input.Body.Title,
		Subject:     input.Body.Subject,
		Grade:       input.Body.Grade,
		Type:        input.Body.Type,
		Description: input.Body.Description,
		Link:        input.Body.Link,
	})
	if err != nil {
		return nil, err
	}
	return &MaterialOutput{Body: mapMaterial(m)}, nil
}

func (s *Server) handleDeleteMaterial(ctx context.Context, input *MaterialIDInput) (*MessageOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Material.Delete(ctx, user, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "material deleted"}}, nil
}

func (s *Server) handleRecordView(ctx context.Context, input *MaterialIDInput) (*MessageOutput, error) {
	if err := s.services.Material.RecordView(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "view counted"}}, nil
}

func (s *Server) handleFavorite(ctx context.Context, input *MaterialIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Material.Favorite(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "favorited"}}, nil
}

func (s *Server) handleUnfavorite(ctx context.Context, input *MaterialIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Material.Unfavorite(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "unfavorited"}}, nil
}

func (s *Server) handleListFavorites(ctx context.Context, _ *struct{}) (*FavoritesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.services.Material.FavoriteIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return &FavoritesOutput{Body: FavoritesResponse{MaterialIDs: ids}}, nil
}

func (s *Server) handleDeleteFile(ctx context.Context, input *MaterialFileIDInput) (*MaterialOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.services.Material.DeleteFile(ctx, user, input.ID, input.FileID)
	if err != nil {
		return nil, err
	}
	return &MaterialOutput{Body: mapMaterial(m)}, nil
}

func (s *Server) handleMarkMain(ctx context.Context, input *MaterialFileIDInput) (*MaterialOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.services.Material.MarkMain(ctx, user, input.ID, input.FileID)
	if err != nil {
		return nil, err
	}
	return &MaterialOutput{Body: mapMaterial(m)}, nil
}
