package cli

import (
	"fmt"

	"github.com/alapierre/secret-helper/internal/support"
	"github.com/alapierre/secret-helper/pkg/secrets"
)

type SetCmd struct {
	Name  string `arg:"" help:"Secret name."`
	Value string `help:"Secret value. Prompted for when omitted."`
}

func (c *SetCmd) Run(g *Globals) error {
	cfg := g.loadConfig()

	if backend := cfg.Get(support.KeyBackend, support.BackendKeyring); backend != support.BackendKeyring {
		return fmt.Errorf("set only supports the %s backend, configured: %s", support.BackendKeyring, backend)
	}

	value := c.Value
	if value == "" {
		var err error
		value, err = support.ReadPassword(fmt.Sprintf("Enter value for %s: ", c.Name))
		if err != nil {
			return fmt.Errorf("failed to read secret: %w", err)
		}
	}
	if value == "" {
		return fmt.Errorf("refusing to store an empty value for %s", c.Name)
	}

	store := secrets.NewKeyringStore(cfg.Get(support.KeyKeyringService, secrets.DefaultKeyringService))
	logger.Debugf("Storing %s in keyring service %s", c.Name, store.Service)
	if err := store.Set(c.Name, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", c.Name, err)
	}

	fmt.Printf("Secret %s stored in OS keyring.\n", c.Name)
	return nil
}
