package config

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alapierre/secret-helper/pkg/logging"
)

// EnvPrefix marks the environment variables picked up by GetEnvConfig.
const EnvPrefix = "SECRET_HELPER_"

var logger = logging.Component("pkg/config")

type Config map[string]string

func Parse(r io.Reader) (Config, error) {
	config := make(Config)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := unquote(strings.TrimSpace(parts[1]))
		config[key] = value
	}
	return config, scanner.Err()
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

func LoadFile(path string) (Config, error) {
	logger.Debugf("Loading config from %s", path)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(Config), nil
		}
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func (c Config) Merge(other Config) {
	for k, v := range other {
		c[k] = v
	}
}

func (c Config) Get(key string, defaultValue string) string {
	if v, ok := c[key]; ok {
		return v
	}
	return defaultValue
}

// Duration reads key as a Go duration ("6m", "90s"). A bare integer is taken
// as seconds. Unparseable values fall back to defaultValue.
func (c Config) Duration(key string, defaultValue time.Duration) time.Duration {
	v, ok := c[key]
	if !ok || v == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warnf("Invalid duration for %s: %q, using %s", key, v, defaultValue)
		return defaultValue
	}
	return d
}

func (c Config) Bool(key string, defaultValue bool) bool {
	v, ok := c[key]
	if !ok || v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warnf("Invalid boolean for %s: %q, using %t", key, v, defaultValue)
		return defaultValue
	}
	return b
}

// WithPrefix returns the entries whose key starts with prefix, keyed by the
// remainder of the key.
func (c Config) WithPrefix(prefix string) Config {
	res := make(Config)
	for k, v := range c {
		if strings.HasPrefix(k, prefix) && len(k) > len(prefix) {
			res[strings.TrimPrefix(k, prefix)] = v
		}
	}
	return res
}

func MergeConfigs(priority ...Config) Config {
	res := make(Config)
	for i := len(priority) - 1; i >= 0; i-- {
		res.Merge(priority[i])
	}
	return res
}

func GetEnvConfig() Config {
	res := make(Config)
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, EnvPrefix) {
			parts := strings.SplitN(env, "=", 2)
			res[parts[0]] = parts[1]
		}
	}
	return res
}
