// Package logging builds the process logger from an optional YAML writer
// configuration.
package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"go.mau.fi/util/ptr"
	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"
)

var levelAliases = map[string]zerolog.Level{
	"warning":  zerolog.WarnLevel,
	"critical": zerolog.FatalLevel,
	"fatal":    zerolog.FatalLevel,
}

// ParseLevel accepts zerolog level names as well as the WARNING and CRITICAL
// spellings, case-insensitively. A blank level is info.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	if lvl, ok := levelAliases[level]; ok {
		return lvl, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// DefaultConfig writes pretty output to stderr at the given level.
func DefaultConfig(level zerolog.Level) zeroconfig.Config {
	return zeroconfig.Config{
		MinLevel: ptr.Ptr(level),
		Writers: []zeroconfig.WriterConfig{{
			Type:   zeroconfig.WriterTypeStderr,
			Format: zeroconfig.LogFormatPrettyColored,
		}},
	}
}

// LoadConfig decodes the YAML writer configuration at path. The level is
// applied when the file does not set min_level itself. ok is false if the
// file does not exist.
func LoadConfig(path string, level zerolog.Level) (cfg zeroconfig.Config, ok bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, false, nil
	} else if err != nil {
		return cfg, false, fmt.Errorf("read log config: %w", err)
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, false, fmt.Errorf("parse log config %s: %w", path, err)
	}
	if cfg.MinLevel == nil {
		cfg.MinLevel = ptr.Ptr(level)
	}
	if len(cfg.Writers) == 0 {
		cfg.Writers = DefaultConfig(level).Writers
	}
	return cfg, true, nil
}

// Setup compiles the logger described by the YAML file at path, or a plain
// stderr logger when the file is missing. The result is also installed as
// zerolog's default context logger.
func Setup(path, level string) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	cfg := DefaultConfig(lvl)
	if path != "" {
		fileCfg, ok, err := LoadConfig(path, lvl)
		if err != nil {
			return zerolog.Nop(), err
		} else if ok {
			cfg = fileCfg
		}
	}
	log, err := cfg.Compile()
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("compile log config: %w", err)
	}
	zerolog.DefaultContextLogger = log
	return *log, nil
}
