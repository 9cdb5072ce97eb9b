package version

// Version is overridden at build time with -ldflags "-X github.com/alapierre/secret-helper/version.Version=...".
var Version = "dev"
