package models

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	pkgerrors "github.com/radityapura/medigate/pkg/errors"
	"github.com/radityapura/medigate/pkg/utils"
)

// Hospital represents a hospital tenant with an optional branded microsite.
// Subdomain and CustomDomain are set by the hospital's administrator; a
// custom domain is assumed DNS-delegated to the platform out of band.
type Hospital struct {
	ID           uint           `gorm:"primaryKey"`
	Name         string         `gorm:"not null"`
	NameSlug     string         `gorm:"index;not null"`
	Subdomain    *string        `gorm:"uniqueIndex"`
	CustomDomain *string        `gorm:"uniqueIndex"`
	Metadata     datatypes.JSON `gorm:"type:json"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Relationships
	Doctors []Doctor `gorm:"foreignKey:HospitalID"`
}

// domainLabelRegex validates a single label of a custom domain
var domainLabelRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// BeforeSave keeps NameSlug in sync with Name and rejects malformed
// subdomain or custom-domain values before they reach storage. The routing
// layer relies on stored values being syntactically valid.
func (h *Hospital) BeforeSave(tx *gorm.DB) error {
	h.NameSlug = utils.NormalizeSlug(h.Name)

	if h.Subdomain != nil {
		sub := strings.ToLower(strings.TrimSpace(*h.Subdomain))
		if !utils.IsValidSubdomain(sub) {
			return pkgerrors.ErrInvalidSubdomain
		}
		h.Subdomain = &sub
	}

	if h.CustomDomain != nil {
		domain := strings.ToLower(strings.TrimSpace(*h.CustomDomain))
		if !isPlausibleDomain(domain) {
			return pkgerrors.ErrInvalidDomain
		}
		h.CustomDomain = &domain
	}

	return nil
}

// TableName specifies the table name
func (Hospital) TableName() string {
	return "hospitals"
}

// isPlausibleDomain performs the syntactic check applied to custom domains.
// DNS delegation is not verified here.
func isPlausibleDomain(domain string) bool {
	if domain == "" || len(domain) > 253 || !strings.Contains(domain, ".") {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if len(label) == 0 || len(label) > utils.MaxLabelLength || !domainLabelRegex.MatchString(label) {
			return false
		}
	}
	return true
}
