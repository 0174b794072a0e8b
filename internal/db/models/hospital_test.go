package models

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	pkgerrors "github.com/radityapura/medigate/pkg/errors"
)

func setupModelDB(t *testing.T) *gorm.DB {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, database.AutoMigrate(&Hospital{}, &Doctor{}))
	return database
}

func ptr(s string) *string {
	return &s
}

// TestHospital_NameSlugSync verifies NameSlug always mirrors the normalized
// display name, including on rename.
func TestHospital_NameSlugSync(t *testing.T) {
	database := setupModelDB(t)

	hospital := &Hospital{Name: "  City General   Hospital!! "}
	require.NoError(t, database.Create(hospital).Error)
	assert.Equal(t, "city-general-hospital", hospital.NameSlug)

	hospital.Name = "Mercy West"
	require.NoError(t, database.Save(hospital).Error)
	assert.Equal(t, "mercy-west", hospital.NameSlug)
}

// TestHospital_SubdomainValidation verifies malformed subdomains are rejected
// and accepted ones are stored lowercased.
func TestHospital_SubdomainValidation(t *testing.T) {
	database := setupModelDB(t)

	t.Run("valid subdomain lowercased", func(t *testing.T) {
		hospital := &Hospital{Name: "Apollo Care", Subdomain: ptr("Apollo-Care")}
		require.NoError(t, database.Create(hospital).Error)
		assert.Equal(t, "apollo-care", *hospital.Subdomain)
	})

	invalid := []string{"", "-leading", "trailing-", "double--dash", "under_score", "dot.ted"}
	for _, sub := range invalid {
		t.Run("rejects "+sub, func(t *testing.T) {
			hospital := &Hospital{Name: "Bad Sub", Subdomain: ptr(sub)}
			err := database.Create(hospital).Error
			assert.True(t, errors.Is(err, pkgerrors.ErrInvalidSubdomain), "subdomain %q must be rejected", sub)
		})
	}
}

// TestHospital_CustomDomainValidation verifies the syntactic domain check.
func TestHospital_CustomDomainValidation(t *testing.T) {
	database := setupModelDB(t)

	t.Run("valid domain lowercased", func(t *testing.T) {
		hospital := &Hospital{Name: "MyCare", CustomDomain: ptr("MyCare.Health")}
		require.NoError(t, database.Create(hospital).Error)
		assert.Equal(t, "mycare.health", *hospital.CustomDomain)
	})

	invalid := []string{"", "nodots", ".leading.dot", "trailing.dot.", "bad_label.com", "-dash.com"}
	for _, domain := range invalid {
		t.Run("rejects "+domain, func(t *testing.T) {
			hospital := &Hospital{Name: "Bad Domain", CustomDomain: ptr(domain)}
			err := database.Create(hospital).Error
			assert.True(t, errors.Is(err, pkgerrors.ErrInvalidDomain), "domain %q must be rejected", domain)
		})
	}
}

// TestDoctor_SlugDerivation verifies slugs are derived from the name when
// absent and canonicalized when supplied.
func TestDoctor_SlugDerivation(t *testing.T) {
	database := setupModelDB(t)

	t.Run("derived from name", func(t *testing.T) {
		doctor := &Doctor{Name: "Dr. Jane Smith"}
		require.NoError(t, database.Create(doctor).Error)
		assert.Equal(t, "dr-jane-smith", doctor.Slug)
	})

	t.Run("supplied slug canonicalized", func(t *testing.T) {
		doctor := &Doctor{Name: "John Doe", Slug: "  John  DOE "}
		require.NoError(t, database.Create(doctor).Error)
		assert.Equal(t, "john-doe", doctor.Slug)
	})
}
