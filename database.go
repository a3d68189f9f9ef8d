package main

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// CachedEvent is the relational mirror of an accepted submission. The table
// keeps its own auto-increment key; it never shares ids with the remote
// stores. Write-only at runtime, read out of band with a sqlite shell.
type CachedEvent struct {
	ID          uint `gorm:"primaryKey"`
	Name        string
	Category    string
	District    string
	Upazila     string
	Village     string
	Address     string
	Description string
	ImageURL    string
	LinkURL     string
	EventDate   string
	EventDay    string
	StartTime   string
	Contact     string
	Latitude    *float64
	Longitude   *float64
	CreatedAt   string
}

// SQLiteCache keeps a local copy of everything the primary accepted.
type SQLiteCache struct {
	db *gorm.DB
}

func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&CachedEvent{}); err != nil {
		return nil, err
	}
	fmt.Println("✅ Local cache ready at", path)
	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Save(ctx context.Context, e Event) error {
	row := CachedEvent{
		Name:        e.Name,
		Category:    e.Category,
		District:    e.District,
		Upazila:     e.Upazila,
		Village:     e.Village,
		Address:     e.Address,
		Description: e.Description,
		ImageURL:    e.ImageURL,
		LinkURL:     e.LinkURL,
		EventDate:   e.EventDate,
		EventDay:    e.EventDay,
		StartTime:   e.StartTime,
		Contact:     e.Contact,
		Latitude:    e.Latitude,
		Longitude:   e.Longitude,
		CreatedAt:   e.CreatedAt,
	}
	return c.db.WithContext(ctx).Create(&row).Error
}

func (c *SQLiteCache) Delete(ctx context.Context, id string) error {
	return c.db.WithContext(ctx).Where("id = ?", id).Delete(&CachedEvent{}).Error
}
