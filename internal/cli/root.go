package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/alapierre/secret-helper/internal/support"
	"github.com/alapierre/secret-helper/pkg/config"
	"github.com/alapierre/secret-helper/pkg/logging"
)

var logger = logging.Component("internal/cli")

type Globals struct {
	Verbose     bool   `help:"Enable verbose logging." short:"v"`
	LogToFile   bool   `help:"Enable logging to file." env:"SECRET_HELPER_LOG_TO_FILE"`
	LogFilePath string `help:"Override default log file path." env:"SECRET_HELPER_LOG_FILE"`
	ConfigDir   string `help:"Override configuration directory." env:"SECRET_HELPER_CONFIG_DIR"`
	Backend     string `help:"Secret store to use (memory, keyring, http, aws)."`
}

// loadConfig merges environment and config file, with --backend on top.
func (g *Globals) loadConfig() config.Config {
	configDir := support.GetConfigDir(g.ConfigDir)
	logger.Debugf("Config dir: %s", configDir)

	cfg := support.LoadMergedConfig(configDir, logger)
	if g.Backend != "" {
		cfg[support.KeyBackend] = g.Backend
	}
	return cfg
}

type CLI struct {
	Globals `embed:""`

	Get     GetCmd     `cmd:"" help:"Resolve a secret through the cache."`
	Set     SetCmd     `cmd:"" help:"Store a secret in the OS keyring."`
	Version VersionCmd `cmd:"" help:"Show application version."`
}

func Main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("secret-helper"),
		kong.Description("Cached access to platform secrets"),
		kong.UsageOnError(),
	)

	logPath := cli.Globals.LogFilePath
	if cli.Globals.LogToFile && logPath == "" {
		logPath = filepath.Join(logging.GetDefaultLogDir(), "secret-helper.log")
	}

	logging.SetupLogging(cli.Globals.Verbose, logPath)

	err := kctx.Run(&cli.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
