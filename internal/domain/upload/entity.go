package upload

import (
	"time"

	"github.com/google/uuid"
)

// Upload is the journal row written for every persisted file.
type Upload struct {
	ID               string    `gorm:"column:id;primaryKey" json:"id"`
	UploadedBy       int64     `gorm:"column:uploaded_by;index" json:"uploaded_by"`
	Field            string    `gorm:"column:field" json:"field"`
	OriginalName     string    `gorm:"column:original_name" json:"original_name"`
	StoredName       string    `gorm:"column:stored_name" json:"stored_name"`
	Path             string    `gorm:"column:path;uniqueIndex" json:"path"`
	MimeType         string    `gorm:"column:mime_type" json:"mime_type"`
	DetectedMimeType string    `gorm:"column:detected_mime_type" json:"detected_mime_type,omitempty"`
	Size             int64     `gorm:"column:size" json:"size"`
	Checksum         string    `gorm:"column:checksum" json:"checksum,omitempty"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Upload) TableName() string { return "uploads" }

// NewUploadEntry builds the journal row for a persisted file.
func NewUploadEntry(f *File, uploadedBy int64, checksum string) *Upload {
	return &Upload{
		ID:               uuid.New().String(),
		UploadedBy:       uploadedBy,
		Field:            f.FieldName(),
		OriginalName:     f.OriginalName(),
		StoredName:       f.Name(),
		Path:             f.PersistedPath(),
		MimeType:         f.MimeType(),
		DetectedMimeType: f.DetectedMimeType(),
		Size:             f.Size(),
		Checksum:         checksum,
		CreatedAt:        time.Now().UTC(),
	}
}
