package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"aivideo/models"
)

// videoRow is one history record in the generated_videos table
type videoRow struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Position     int       `gorm:"not null;index"`
	Prompt       string    `gorm:"type:text"`
	Model        string    `gorm:"size:255"`
	VideoURL     string    `gorm:"type:text"`
	ThumbnailURL string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
	Duration     int
	Status       string `gorm:"size:20"`
	Resolution   string `gorm:"size:20"`
	FileSize     int64
	Format       string `gorm:"size:20"`
}

func (videoRow) TableName() string { return "generated_videos" }

// settingsRow is the single app_settings row
type settingsRow struct {
	ID           int    `gorm:"primaryKey"`
	DefaultModel string `gorm:"size:255"`
	SystemPrompt string `gorm:"type:text"`
	AutoSave     bool
	VideoQuality string `gorm:"size:20"`
}

func (settingsRow) TableName() string { return "app_settings" }

// PostgresRepository stores state in two tables through gorm
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository connects and migrates the schema
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.AutoMigrate(&videoRow{}, &settingsRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

func (p *PostgresRepository) Load(ctx context.Context) (*State, error) {
	state := DefaultState()

	var rows []videoRow
	if err := p.db.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load videos: %w", err)
	}
	for _, row := range rows {
		state.Videos = append(state.Videos, row.toRecord())
	}

	var s settingsRow
	err := p.db.WithContext(ctx).First(&s, 1).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load settings: %w", err)
	default:
		state.Settings = models.AppSettings{
			DefaultModel: s.DefaultModel,
			SystemPrompt: s.SystemPrompt,
			AutoSave:     s.AutoSave,
			VideoQuality: models.VideoQuality(s.VideoQuality),
		}
	}

	state.SelectedModel = state.Settings.DefaultModel
	return state, nil
}

// Save replaces both tables in one transaction
func (p *PostgresRepository) Save(ctx context.Context, state *State) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&videoRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear videos: %w", err)
		}
		if len(state.Videos) > 0 {
			rows := make([]videoRow, len(state.Videos))
			for i, v := range state.Videos {
				rows[i] = toVideoRow(i, v)
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to insert videos: %w", err)
			}
		}

		s := settingsRow{
			ID:           1,
			DefaultModel: state.Settings.DefaultModel,
			SystemPrompt: state.Settings.SystemPrompt,
			AutoSave:     state.Settings.AutoSave,
			VideoQuality: string(state.Settings.VideoQuality),
		}
		if err := tx.Save(&s).Error; err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		return nil
	})
}

func (p *PostgresRepository) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toVideoRow(pos int, v models.GeneratedVideoRecord) videoRow {
	row := videoRow{
		ID:           v.ID,
		Position:     pos,
		Prompt:       v.Prompt,
		Model:        v.Model,
		VideoURL:     v.VideoURL,
		ThumbnailURL: v.ThumbnailURL,
		CreatedAt:    v.CreatedAt,
		Duration:     v.Duration,
		Status:       string(v.Status),
	}
	if v.Metadata != nil {
		row.Resolution = v.Metadata.Resolution
		row.FileSize = v.Metadata.FileSize
		row.Format = v.Metadata.Format
	}
	return row
}

func (row videoRow) toRecord() models.GeneratedVideoRecord {
	rec := models.GeneratedVideoRecord{
		ID:           row.ID,
		Prompt:       row.Prompt,
		Model:        row.Model,
		VideoURL:     row.VideoURL,
		ThumbnailURL: row.ThumbnailURL,
		CreatedAt:    row.CreatedAt,
		Duration:     row.Duration,
		Status:       models.VideoStatus(row.Status),
	}
	if row.Resolution != "" || row.FileSize != 0 || row.Format != "" {
		rec.Metadata = &models.VideoMetadata{
			Resolution: row.Resolution,
			FileSize:   row.FileSize,
			Format:     row.Format,
		}
	}
	return rec
}
