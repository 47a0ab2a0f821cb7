package domain

import "time"

// Material is an uploaded teaching resource (notes, presentation, program).
// Title and Description are mirrored into the full-text index by schema
// triggers; the rest of the columns are plain filter/sort fields.
type Material struct {
	ID          int64     `json:"id"`
	AuthorID    int64     `json:"author_id"`
	AuthorName  string    `json:"author_name"` // Denormalized from users on read
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	Grade       string    `json:"grade"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Link        string    `json:"link,omitempty"`
	FileURL     string    `json:"file_url,omitempty"`
	FileName    string    `json:"file_name,omitempty"`
	Size        int64     `json:"size,omitempty"`
	MimeType    string    `json:"mime_type,omitempty"`
	Views       int64     `json:"views"`
	Downloads   int64     `json:"downloads"`
	CreatedAt   time.Time `json:"created_at"`

	// Attachments are additional files beyond the main one.
	// Populated by the service layer, not by the base listing query.
	Attachments []*MaterialFile `json:"attachments"`
}

// HasMainFile reports whether the material still carries a legacy main file.
func (m *Material) HasMainFile() bool {
	return m.FileURL != "" && m.FileName != ""
}

// MaterialFile is an extra attachment belonging to a material.
type MaterialFile struct {
	ID         int64     `json:"id"`
	MaterialID int64     `json:"material_id"`
	FileURL    string    `json:"file_url"`
	FileName   string    `json:"file_name"`
	IsMain     bool      `json:"is_main"`
	Size       int64     `json:"size,omitempty"`
	MimeType   string    `json:"mime_type,omitempty"`
	BlurHash   string    `json:"blur_hash,omitempty"` // Placeholder hash for image attachments
	CreatedAt  time.Time `json:"created_at"`
}

// IsImage reports whether the attachment is a displayable image.
func (f *MaterialFile) IsImage() bool {
	switch f.MimeType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
