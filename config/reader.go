package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/tfcache/logging"
)

// Read reads a config from the given file, substituting environment variables first.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	cfg := &Config{ConfigFilePath: originalPath}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "cannot parse config %q", originalPath)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %q", originalPath)
	}
	logger.Debugw("config loaded",
		"path", originalPath,
		"max_storage_time", cfg.Cache.StorageTime(),
		"max_records", cfg.Cache.MaxRecords,
		"topics", cfg.Bag.Topics)
	return cfg, nil
}

// Default returns a validated config with every default filled in.
func Default() *Config {
	cfg := &Config{}
	utils.UncheckedError(cfg.Validate())
	return cfg
}

// DefaultUnbounded is Default without a storage window, for reading a whole recording at once.
func DefaultUnbounded() *Config {
	cfg := &Config{Cache: CacheConfig{MaxStorageTime: "0s"}}
	utils.UncheckedError(cfg.Validate())
	return cfg
}
