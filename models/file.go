package models

import (
	"time"

	"gorm.io/gorm"
)

// File types produced by classification.
const (
	TypeImage = "image"
	TypeVideo = "video"
	TypeOther = "other"
)

// FileRecord is the locally persisted organisation data for one remote object.
// Folder "" is the root.
type FileRecord struct {
	FileID     string `gorm:"primaryKey" json:"fileId"`
	Folder     string `gorm:"index" json:"folder"`
	IsFavorite bool   `json:"isFavorite"`
	FileType   string `json:"fileType,omitempty"`
}

// Folder is a named grouping referenced by FileRecord.Folder.
type Folder struct {
	Name      string    `gorm:"primaryKey" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Favorite is the SQL row form of favorites-set membership.
type Favorite struct {
	FileID string `gorm:"primaryKey"`
}

// Descriptor is a stored media object as reported by remote storage.
type Descriptor struct {
	FileID       string    `json:"fileId"`
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Size         int64     `json:"size"`
	FileType     string    `json:"fileType"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// MergedFile is a Descriptor joined with its local organisation data.
// FileType holds the corrected classification.
type MergedFile struct {
	Descriptor
	Folder     string `json:"folder"`
	IsFavorite bool   `json:"isFavorite"`
}

// Orphan is the SQL row form of an orphaned remote object.
type Orphan struct {
	FileID string `gorm:"primaryKey"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&FileRecord{}, &Favorite{}, &Folder{}, &Orphan{})
}
