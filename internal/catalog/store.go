// Package catalog is the reusable creature-template store backing the DM
// roster form. It is deliberately peripheral: the sync core never reads it,
// and the whole package stays unmounted when no DSN is configured.
package catalog

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var validTypes = map[string]bool{"PC": true, "NPC": true, "Monster": true}

func ValidType(t string) bool { return validTypes[t] }

type Entry struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Type          string  `gorm:"index:idx_catalog_type;uniqueIndex:idx_catalog_type_name" json:"type"`
	Name          string  `gorm:"uniqueIndex:idx_catalog_type_name" json:"name"`
	DefaultHealth *int    `json:"default_health"`
	ImagePath     *string `json:"image_path"`
}

func (Entry) TableName() string { return "catalog_entries" }

type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) ListByType(t string) ([]Entry, error) {
	var out []Entry
	err := s.db.Where("type = ?", t).Order("lower(name)").Find(&out).Error
	return out, err
}

// Upsert inserts or, on a (type, name) collision, refreshes the default HP
// while keeping the old image when the new row carries none.
func (s *Store) Upsert(e Entry) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "type"}, {Name: "name"}},
		DoUpdates: clause.Assignments(map[string]any{
			"default_health": gorm.Expr("excluded.default_health"),
			"image_path":     gorm.Expr("COALESCE(excluded.image_path, catalog_entries.image_path)"),
		}),
	}).Create(&e).Error
}

func (s *Store) Update(e Entry) error {
	return s.db.Model(&Entry{}).Where("id = ?", e.ID).Updates(map[string]any{
		"name":           e.Name,
		"type":           e.Type,
		"default_health": e.DefaultHealth,
		"image_path":     e.ImagePath,
	}).Error
}

func (s *Store) UpdateHP(id uint, defaultHealth *int) error {
	return s.db.Model(&Entry{}).Where("id = ?", id).
		Update("default_health", defaultHealth).Error
}

func (s *Store) Delete(id uint) error {
	return s.db.Delete(&Entry{}, id).Error
}

// InsertMany bulk-imports rows, silently skipping (type, name) duplicates.
func (s *Store) InsertMany(rows []Entry) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.Model(&Entry{}).Count(&n).Error
	return n, err
}
