package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/radityapura/medigate/pkg/utils"
)

// Doctor represents a doctor tenant identified by a URL slug.
type Doctor struct {
	ID         uint   `gorm:"primaryKey"`
	Slug       string `gorm:"uniqueIndex;not null"`
	Name       string `gorm:"not null"`
	Specialty  string
	HospitalID *uint `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Relationships
	Hospital *Hospital `gorm:"foreignKey:HospitalID"`
}

// BeforeSave derives the slug from the display name when absent and keeps
// stored slugs in canonical form.
func (d *Doctor) BeforeSave(tx *gorm.DB) error {
	if d.Slug == "" {
		d.Slug = utils.NormalizeSlug(d.Name)
	} else {
		d.Slug = utils.NormalizeSlug(d.Slug)
	}
	return nil
}

// TableName specifies the table name
func (Doctor) TableName() string {
	return "doctors"
}
