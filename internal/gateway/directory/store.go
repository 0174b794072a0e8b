package directory

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/radityapura/medigate/internal/db/models"
	pkgerrors "github.com/radityapura/medigate/pkg/errors"
)

// Directory is the read-only lookup surface the resolver depends on.
// Implementations return pkgerrors.ErrHospitalNotFound for a clean miss and
// any other error for an infrastructure failure; the resolver treats the two
// differently only for logging, both degrade to the next tier.
type Directory interface {
	FindHospitalBySubdomain(ctx context.Context, subdomain string) (*models.Hospital, error)
	FindHospitalByName(ctx context.Context, normalizedName string) (*models.Hospital, error)
	FindHospitalByCustomDomain(ctx context.Context, hostname string) (*models.Hospital, error)
}

// GormDirectory serves lookups from the relational store owned by the CRUD
// API layer. All queries are reads.
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory creates a directory over a gorm connection.
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

// FindHospitalBySubdomain finds a hospital by its explicitly configured
// subdomain field.
func (d *GormDirectory) FindHospitalBySubdomain(ctx context.Context, subdomain string) (*models.Hospital, error) {
	return d.first(ctx, "subdomain = ?", strings.ToLower(subdomain))
}

// FindHospitalByName finds a hospital whose normalized name equals the
// candidate label. NameSlug is maintained at write time by the model hook,
// with the same normalizer used on inbound labels.
func (d *GormDirectory) FindHospitalByName(ctx context.Context, normalizedName string) (*models.Hospital, error) {
	return d.first(ctx, "name_slug = ?", normalizedName)
}

// FindHospitalByCustomDomain finds a hospital by exact custom domain match.
// Stored domains are lowercased at write time, so the comparison is
// case-insensitive.
func (d *GormDirectory) FindHospitalByCustomDomain(ctx context.Context, hostname string) (*models.Hospital, error) {
	return d.first(ctx, "custom_domain = ?", strings.ToLower(hostname))
}

func (d *GormDirectory) first(ctx context.Context, query string, arg string) (*models.Hospital, error) {
	if arg == "" {
		return nil, pkgerrors.ErrHospitalNotFound
	}

	var hospital models.Hospital
	err := d.db.WithContext(ctx).
		Where(query, arg).
		First(&hospital).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrHospitalNotFound
		}
		return nil, pkgerrors.Wrap(err, "failed to query hospital")
	}

	return &hospital, nil
}
