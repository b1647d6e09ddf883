package config

import (
	"context"
	"log/slog"

	"github.com/usagi-project/usagi-api/internal/apperr"
	"github.com/usagi-project/usagi-api/internal/hash"
	"github.com/usagi-project/usagi-api/internal/models"
	"github.com/usagi-project/usagi-api/internal/repo"
)

// SeedInitialAdmin creates the bootstrap admin account when the INIT_ADMIN_*
// variables are set and the email is not already taken.
func SeedInitialAdmin(ctx context.Context, r *repo.GormRepo, cfg *Config, l *slog.Logger) error {
	if cfg.InitAdminEmail == "" || cfg.InitAdminAlias == "" || cfg.InitAdminPassword == "" {
		return nil
	}

	_, err := r.FindByEmail(ctx, cfg.InitAdminEmail)
	if err == nil {
		return nil
	}
	if !apperr.IsKind(err, apperr.KindNotFound) {
		return err
	}

	pwHash, err := hash.HashPassword(cfg.InitAdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:        cfg.InitAdminEmail,
		Alias:        cfg.InitAdminAlias,
		PasswordHash: pwHash,
		Role:         models.RoleAdmin,
		Confirmed:    true,
	}
	if err := r.Create(ctx, admin); err != nil {
		return err
	}

	l.Info("seeded initial admin", "alias", admin.Alias, "user_id", admin.ID)
	return nil
}
