package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/setanarut/colorhull"
)

const maxConfigSize = 1 << 20

// LoadOptions reads a YAML options file. Fields missing from the file keep
// their colorhull.DefaultOptions values. The result is validated.
func LoadOptions(path string) (colorhull.Options, error) {
	opt := colorhull.DefaultOptions()
	clean := filepath.Clean(path)
	info, err := os.Stat(clean)
	if err != nil {
		return opt, fmt.Errorf("stat config: %w", err)
	}
	if info.Size() > maxConfigSize {
		return opt, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}
	data, err := os.ReadFile(clean)
	if err != nil {
		return opt, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &opt); err != nil {
		return opt, fmt.Errorf("parse config %s: %w", clean, err)
	}
	if err := opt.Validate(); err != nil {
		return opt, err
	}
	return opt, nil
}
