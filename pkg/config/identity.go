package config

import (
	"fmt"

	"github.com/marmos91/dittoftp/pkg/identity"
)

// CreateUserStore opens the account store described by the configuration.
//
// Accounts live in the users file at Users.Path, with each account's
// chroot directory created under the FTP root. A missing users file is
// not an error; the store starts empty and the file appears on the
// first mutation.
func (c *Config) CreateUserStore() (*identity.Store, error) {
	store, err := identity.NewStore(c.Users.Path, c.FTP.Root, c.Users.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("open users file %q: %w", c.Users.Path, err)
	}
	return store, nil
}
