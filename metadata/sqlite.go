package metadata

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"fotomu/models"
)

// insertBatchSize keeps each INSERT well under SQLite's bound variable
// limit.
const insertBatchSize = 500

// SQLite keeps the document in the file_records, favorites, folders and
// orphans tables. Save rewrites them all in one transaction.
type SQLite struct {
	db *gorm.DB
}

// NewSQLite returns a repository over an opened, migrated database.
func NewSQLite(db *gorm.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Load(ctx context.Context) (*models.State, error) {
	state := models.NewState()
	tx := s.db.WithContext(ctx)

	if err := tx.Order("file_id").Find(&state.Files).Error; err != nil {
		return nil, fmt.Errorf("loading file records: %w", err)
	}

	var favorites []models.Favorite
	if err := tx.Order("file_id").Find(&favorites).Error; err != nil {
		return nil, fmt.Errorf("loading favorites: %w", err)
	}
	for _, f := range favorites {
		state.Favorites = append(state.Favorites, f.FileID)
	}

	if err := tx.Order("created_at").Find(&state.Folders).Error; err != nil {
		return nil, fmt.Errorf("loading folders: %w", err)
	}

	var orphans []models.Orphan
	if err := tx.Order("file_id").Find(&orphans).Error; err != nil {
		return nil, fmt.Errorf("loading orphans: %w", err)
	}
	for _, o := range orphans {
		state.Orphans = append(state.Orphans, o.FileID)
	}
	return state, nil
}

func (s *SQLite) Save(ctx context.Context, state *models.State) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.FileRecord{}, &models.Favorite{}, &models.Folder{}, &models.Orphan{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clearing %T: %w", model, err)
			}
		}

		if len(state.Files) > 0 {
			if err := tx.CreateInBatches(&state.Files, insertBatchSize).Error; err != nil {
				return fmt.Errorf("saving file records: %w", err)
			}
		}
		if len(state.Favorites) > 0 {
			favorites := make([]models.Favorite, 0, len(state.Favorites))
			for _, id := range state.Favorites {
				favorites = append(favorites, models.Favorite{FileID: id})
			}
			if err := tx.CreateInBatches(&favorites, insertBatchSize).Error; err != nil {
				return fmt.Errorf("saving favorites: %w", err)
			}
		}
		if len(state.Folders) > 0 {
			if err := tx.CreateInBatches(&state.Folders, insertBatchSize).Error; err != nil {
				return fmt.Errorf("saving folders: %w", err)
			}
		}
		if len(state.Orphans) > 0 {
			orphans := make([]models.Orphan, 0, len(state.Orphans))
			for _, id := range state.Orphans {
				orphans = append(orphans, models.Orphan{FileID: id})
			}
			if err := tx.CreateInBatches(&orphans, insertBatchSize).Error; err != nil {
				return fmt.Errorf("saving orphans: %w", err)
			}
		}
		return nil
	})
}
