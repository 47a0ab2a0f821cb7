package api

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/edubase4teachers/edubase-server/internal/domain"
	"github.com/edubase4teachers/edubase-server/internal/http/response"
	"github.com/edubase4teachers/edubase-server/internal/service"
	"github.com/edubase4teachers/edubase-server/internal/uploads"
)

// maxMultipartMemory bounds how much of a multipart body is buffered in
// memory before spilling to temp files.
const maxMultipartMemory = 32 << 20

func (s *Server) registerFileRoutes() {
	// Download streams bytes and sets Content-Disposition, so it bypasses
	// the OpenAPI layer like the multipart endpoints do.
	s.router.Get("/api/v1/files/{id}/download", s.handleDownloadFile)
}

// requireUserHTTP authenticates a plain chi handler. Returns nil after
// writing the error response when authentication fails.
func (s *Server) requireUserHTTP(w http.ResponseWriter, r *http.Request) *domain.User {
	claims := getClaims(r.Context())
	if claims == nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return nil
	}

	user, err := s.store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		response.Unauthorized(w, "User not found", s.logger)
		return nil
	}
	return user
}

// collectUploads turns the "files" parts of a parsed multipart form into
// service uploads. The returned closer releases the open part readers.
func collectUploads(form *multipart.Form) ([]service.Upload, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	files := form.File["files"]
	ups := make([]service.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open multipart file: %w", err)
		}
		opened = append(opened, f)
		ups = append(ups, service.Upload{
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Reader:   f,
		})
	}
	return ups, closeAll, nil
}

// handleCreateMaterial creates a material from a multipart form.
// POST /api/v1/materials
// Fields: title, subject, grade, type, description, link; file parts: files.
func (s *Server) handleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	user := s.requireUserHTTP(w, r)
	if user == nil {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		response.BadRequest(w, "Invalid multipart form", s.logger)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := service.CreateMaterialRequest{
		Title:       r.FormValue("title"),
		Subject:     r.FormValue("subject"),
		Grade:       r.FormValue("grade"),
		Type:        r.FormValue("type"),
		Description: r.FormValue("description"),
		Link:        r.FormValue("link"),
	}

	ups, closeFiles, err := collectUploads(r.MultipartForm)
	if err != nil {
		response.BadRequest(w, "Unreadable file upload", s.logger)
		return
	}
	defer closeFiles()

	m, err := s.services.Material.Create(r.Context(), user, req, ups)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, mapMaterial(m), s.logger)
}

// handleAddFiles appends attachments to a material from a multipart form.
// POST /api/v1/materials/{id}/files
func (s *Server) handleAddFiles(w http.ResponseWriter, r *http.Request) {
	user := s.requireUserHTTP(w, r)
	if user == nil {
		return
	}

	materialID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid material ID", s.logger)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		response.BadRequest(w, "Invalid multipart form", s.logger)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	ups, closeFiles, err := collectUploads(r.MultipartForm)
	if err != nil {
		response.BadRequest(w, "Unreadable file upload", s.logger)
		return
	}
	defer closeFiles()

	m, err := s.services.Material.AddFiles(r.Context(), user, materialID, ups)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, mapMaterial(m), s.logger)
}

// handleDownloadFile serves an attachment as a download and counts it.
// GET /api/v1/files/{id}/download
func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid file ID", s.logger)
		return
	}

	f, filePath, err := s.services.Material.Download(r.Context(), fileID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if f.MimeType != "" {
		w.Header().Set("Content-Type", f.MimeType)
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", uploads.CleanOriginalName(f.FileName)))

	// ServeFile handles Range requests and caching headers.
	http.ServeFile(w, r, filePath)
}
