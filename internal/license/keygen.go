// Package license gates startup on a keygen.sh license.
package license

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"sort"

	"github.com/keygen-sh/keygen-go/v3"
	"go.uber.org/zap"
)

// Credentials identify the keygen.sh product and the license to check.
type Credentials struct {
	AccountID    string
	ProductID    string
	ProductToken string
	LicenseKey   string
}

// Complete reports whether every field is set.
func (c Credentials) Complete() bool {
	return c.AccountID != "" && c.ProductID != "" && c.ProductToken != "" && c.LicenseKey != ""
}

// KeygenValidator handles license validation using Keygen.sh
type KeygenValidator struct {
	logger *zap.Logger
	creds  Credentials
}

// NewKeygenValidator configures the keygen client for creds.
func NewKeygenValidator(creds Credentials, logger *zap.Logger) *KeygenValidator {
	keygen.Account = creds.AccountID
	keygen.Product = creds.ProductID
	keygen.Token = creds.ProductToken
	keygen.LicenseKey = creds.LicenseKey

	return &KeygenValidator{
		logger: logger.Named("license"),
		creds:  creds,
	}
}

// Validate checks the license for this machine, activating the machine
// when the license has not been activated on it yet.
func (kv *KeygenValidator) Validate(ctx context.Context) error {
	kv.logger.Info("🔑 Validating license", zap.String("key", maskKey(kv.creds.LicenseKey)))

	fingerprint, err := Fingerprint()
	if err != nil {
		return fmt.Errorf("failed to generate machine fingerprint: %w", err)
	}

	lic, err := keygen.Validate(ctx, fingerprint)
	switch {
	case errors.Is(err, keygen.ErrLicenseNotActivated):
		kv.logger.Info("License not activated, attempting activation")
		machine, activateErr := lic.Activate(ctx, fingerprint)
		if activateErr != nil {
			return fmt.Errorf("failed to activate license: %w", activateErr)
		}
		kv.logger.Info("License activated",
			zap.String("machine_id", machine.ID),
			zap.String("fingerprint", fingerprint))

	case errors.Is(err, keygen.ErrLicenseExpired):
		return fmt.Errorf("license has expired")

	case err != nil:
		return fmt.Errorf("license validation failed: %w", err)
	}

	if lic == nil {
		return fmt.Errorf("license not found")
	}

	kv.logger.Info("✅ License validated", zap.String("license_id", lic.ID))
	return nil
}

// Fingerprint derives a stable machine identifier from the hostname, the
// first hardware address and the OS.
func Fingerprint() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	var macAddresses []string
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagLoopback == 0 && len(iface.HardwareAddr) > 0 {
			macAddresses = append(macAddresses, iface.HardwareAddr.String())
		}
	}
	if len(macAddresses) == 0 {
		return "", fmt.Errorf("no network interfaces found")
	}
	sort.Strings(macAddresses)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	data := fmt.Sprintf("%s-%s-%s", hostname, macAddresses[0], runtime.GOOS)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash), nil
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:8] + "..."
}
