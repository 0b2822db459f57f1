// internal/database/seeder.go
package database

import (
	"context"
	"errors"
	"time"

	"rental-admin-console/config"
	"rental-admin-console/internal/apiclient"
	"rental-admin-console/internal/auth"
	"rental-admin-console/internal/models"

	"go.uber.org/zap"
)

// SeedAdminCredentials installs the configured tokens when the store is empty.
// An existing record wins: it may hold a rotated token newer than the config.
func SeedAdminCredentials(ctx context.Context, store apiclient.CredentialStore, cfg config.AdminConfig, logger *zap.Logger) error {
	_, err := store.Load(ctx)
	if err == nil {
		logger.Info("admin credentials already present, seeding skipped")
		return nil
	}
	if !errors.Is(err, apiclient.ErrNoCredentials) {
		return err
	}

	if cfg.AccessToken == "" {
		logger.Warn("no admin credentials stored and none configured; backend calls will fail until tokens are provided")
		return nil
	}

	creds := &models.AdminCredentials{
		Username:     cfg.Username,
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		UpdatedAt:    time.Now().UTC(),
	}
	if claims, err := auth.InspectToken(cfg.AccessToken); err == nil {
		creds.UserAttributes = claims.Attributes()
		if creds.Username == "" {
			creds.Username = claims.Name()
		}
		if claims.ExpiredAt(time.Now()) {
			logger.Warn("seeded access token is already expired, first call will refresh it")
		}
	} else {
		logger.Warn("configured access token is not a JWT", zap.Error(err))
	}

	if err := store.Save(ctx, creds); err != nil {
		return err
	}
	logger.Info("admin credentials seeded", zap.String("username", creds.Username))
	return nil
}
