package bot

import (
	"context"
	"fmt"

	"github.com/rovshanmuradov/coinsniper/internal/config"
	"github.com/rovshanmuradov/coinsniper/internal/license"
	"go.uber.org/zap"
)

// CheckLicense validates the configured license. Without complete keygen
// settings the check is skipped.
func CheckLicense(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	creds := license.Credentials{
		AccountID:    cfg.KeygenAccountID,
		ProductID:    cfg.KeygenProductID,
		ProductToken: cfg.KeygenProductToken,
		LicenseKey:   cfg.LicenseKey,
	}
	if !creds.Complete() {
		logger.Debug("License check skipped, keygen settings incomplete")
		return nil
	}

	if err := license.NewKeygenValidator(creds, logger).Validate(ctx); err != nil {
		return fmt.Errorf("license validation failed: %w", err)
	}
	return nil
}
