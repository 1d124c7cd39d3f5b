package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AccountsFile is the on-disk watchlist of monitored accounts.
//
//	accounts:
//	  - handle: someone
//	  - handle: "@other"
//	    disabled: true
type AccountsFile struct {
	Accounts []Account `yaml:"accounts"`
}

type Account struct {
	Handle   string `yaml:"handle"`
	Note     string `yaml:"note,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// LoadAccounts returns the enabled handles listed in a YAML watchlist.
func LoadAccounts(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}

	var file AccountsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse accounts file: %w", err)
	}

	handles := make([]string, 0, len(file.Accounts))
	for _, acc := range file.Accounts {
		if acc.Disabled || acc.Handle == "" {
			continue
		}
		handles = append(handles, acc.Handle)
	}
	return handles, nil
}
