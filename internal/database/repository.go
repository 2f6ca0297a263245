package database

import (
	"github.com/robalyx/warden/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	infraction *models.InfractionModel
	ban        *models.BanModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		infraction: models.NewInfraction(db, logger),
		ban:        models.NewBan(db, logger),
	}
}

// Infraction returns the infraction model repository.
func (r *Repository) Infraction() *models.InfractionModel {
	return r.infraction
}

// Ban returns the guild ban model repository.
func (r *Repository) Ban() *models.BanModel {
	return r.ban
}
