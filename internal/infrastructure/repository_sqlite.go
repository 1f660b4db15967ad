package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

// SQLiteAcquisitionRepository implements AcquisitionRepository using SQLite
type SQLiteAcquisitionRepository struct {
	db *gorm.DB
}

// NewSQLiteAcquisitionRepository opens (and migrates) the history database at dbPath
func NewSQLiteAcquisitionRepository(dbPath string) (*SQLiteAcquisitionRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Acquisition{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteAcquisitionRepository{db: db}, nil
}

// Create creates a new record
func (r *SQLiteAcquisitionRepository) Create(acquisition *domain.Acquisition) error {
	return r.db.Create(acquisition).Error
}

// Update updates an existing record
func (r *SQLiteAcquisitionRepository) Update(acquisition *domain.Acquisition) error {
	return r.db.Save(acquisition).Error
}

// Delete deletes a record by ID
func (r *SQLiteAcquisitionRepository) Delete(id string) error {
	result := r.db.Delete(&domain.Acquisition{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindByID finds a record by ID
func (r *SQLiteAcquisitionRepository) FindByID(id string) (*domain.Acquisition, error) {
	var acquisition domain.Acquisition
	if err := r.db.First(&acquisition, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &acquisition, nil
}

// FindAll finds records matching filter, newest first
func (r *SQLiteAcquisitionRepository) FindAll(filter domain.AcquisitionFilter) ([]*domain.Acquisition, error) {
	var acquisitions []*domain.Acquisition
	query := r.db.Model(&domain.Acquisition{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Provider != "" {
		query = query.Where("provider = ?", filter.Provider)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	err := query.Order("created_at DESC").Find(&acquisitions).Error
	return acquisitions, err
}

// FindLatestCompleted returns the newest completed record for rawInput, or nil
func (r *SQLiteAcquisitionRepository) FindLatestCompleted(rawInput string) (*domain.Acquisition, error) {
	var acquisition domain.Acquisition
	err := r.db.Where("raw_input = ? AND status = ?", rawInput, domain.StatusCompleted).
		Order("created_at DESC").
		First(&acquisition).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &acquisition, nil
}

// GetStats returns history statistics
func (r *SQLiteAcquisitionRepository) GetStats() (*domain.AcquisitionStats, error) {
	stats := &domain.AcquisitionStats{ByProvider: make(map[domain.ProviderID]int64)}

	if err := r.db.Model(&domain.Acquisition{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	var statusCounts []struct {
		Status domain.AcquisitionStatus
		Count  int64
	}
	if err := r.db.Model(&domain.Acquisition{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.StatusProcessing:
			stats.Processing = sc.Count
		case domain.StatusCompleted:
			stats.Completed = sc.Count
		case domain.StatusFailed:
			stats.Failed = sc.Count
		case domain.StatusCancelled:
			stats.Cancelled = sc.Count
		}
	}

	var providerCounts []struct {
		Provider domain.ProviderID
		Count    int64
	}
	if err := r.db.Model(&domain.Acquisition{}).
		Select("provider, count(*) as count").
		Where("status = ?", domain.StatusCompleted).
		Group("provider").
		Scan(&providerCounts).Error; err != nil {
		return nil, err
	}

	for _, pc := range providerCounts {
		stats.ByProvider[pc.Provider] = pc.Count
	}

	return stats, nil
}

// Ping checks the database connection
func (r *SQLiteAcquisitionRepository) Ping() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the database connection
func (r *SQLiteAcquisitionRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
