// Package driver wires the core conversion packages to the filesystem: it
// implements the file/directory driver spec.md §6 describes as an external
// collaborator — config loading, concurrency, progress counters, and watch
// mode layered over internal/erb and internal/haml.
package driver

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the optional config file looked up beside a conversion
// root.
const ConfigFileName = ".haml2erb.yml"

// Config is the on-disk shape of .haml2erb.yml.
type Config struct {
	// Ignore holds filepath.Match-style glob patterns matched against each
	// discovered file's base name; matches are skipped during
	// ConvertDirectory.
	Ignore []string `yaml:"ignore,omitempty"`

	// DeleteOriginal, Validate and DryRun seed the defaults for
	// ConvertDirectory when the caller's Options leaves them unset.
	DeleteOriginal bool `yaml:"delete_original,omitempty"`
	Validate       bool `yaml:"validate,omitempty"`
	DryRun         bool `yaml:"dry_run,omitempty"`
}

// LoadConfig reads ConfigFileName from root, if present. A missing file is
// not an error; it just yields a zero Config.
func LoadConfig(root string) (Config, error) {
	path := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

// ignored reports whether base matches one of the config's ignore globs.
func (c Config) ignored(base string) bool {
	for _, pattern := range c.Ignore {
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}
