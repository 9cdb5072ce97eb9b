package cli

import (
	"fmt"

	"github.com/alapierre/secret-helper/version"
)

type VersionCmd struct {
}

func (c *VersionCmd) Run(g *Globals) error {
	handleVersion()
	return nil
}

func handleVersion() {
	fmt.Printf("secret-helper\n")
	fmt.Printf("Version: %s\n", version.Version)
}
