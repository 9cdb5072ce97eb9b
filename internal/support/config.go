package support

import (
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/alapierre/secret-helper/pkg/config"
	"github.com/alapierre/secret-helper/pkg/logging"
)

const ConfigFileName = "secret-helper.env"

var logger = logging.Component("support")

// LoadMergedConfig merges the environment over <configDir>/secret-helper.env.
// A missing file is not an error.
func LoadMergedConfig(configDir string, logger *logrus.Entry) config.Config {
	envCfg := config.GetEnvConfig()

	path := filepath.Join(configDir, ConfigFileName)
	fileCfg, err := config.LoadFile(path)
	if err != nil {
		logger.Debugf("No config file at %s: %v", path, err)
	}

	return config.MergeConfigs(envCfg, fileCfg)
}
