package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docuquery/internal/model"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) GetByKey(key string) (*model.Setting, error) {
	var setting model.Setting
	if err := r.db.Where("`key` = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get setting failed: %w", err)
	}
	return &setting, nil
}

func (r *SettingRepository) List() ([]model.Setting, error) {
	var settings []model.Setting
	if err := r.db.Order("`key` ASC").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("list settings failed: %w", err)
	}
	return settings, nil
}

// UpsertValue updates a setting's value, creating the row if missing.
func (r *SettingRepository) UpsertValue(key, value string) error {
	existing, err := r.GetByKey(key)
	if err != nil {
		return err
	}
	if existing == nil {
		setting := &model.Setting{Key: key, Value: value, ValueType: model.SettingTypeString}
		if err := r.db.Create(setting).Error; err != nil {
			return fmt.Errorf("create setting failed: %w", err)
		}
		return nil
	}
	if err := r.db.Model(&model.Setting{}).Where("`key` = ?", key).Update("value", value).Error; err != nil {
		return fmt.Errorf("update setting failed: %w", err)
	}
	return nil
}

// SeedDefaults inserts missing settings without touching existing values.
func (r *SettingRepository) SeedDefaults(defaults []model.Setting) error {
	for _, def := range defaults {
		existing, err := r.GetByKey(def.Key)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		setting := def
		if err := r.db.Create(&setting).Error; err != nil {
			return fmt.Errorf("seed setting %s failed: %w", def.Key, err)
		}
	}
	return nil
}
