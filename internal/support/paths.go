package support

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	DefaultConfigDirLinux = ".config/secret-helper"
	SystemConfigDirLinux  = "/etc/secret-helper"
)

func GetConfigDir(customConfigDir string) string {
	if customConfigDir != "" {
		return customConfigDir
	}
	return GetDefaultConfigDir()
}

func GetDefaultConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "secret-helper")
	}
	if os.Getuid() == 0 {
		return SystemConfigDirLinux
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, DefaultConfigDirLinux)
}
