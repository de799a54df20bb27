// Package config defines the configuration of transform buffers and bag ingestion.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/tfcache/tf"
)

const (
	// DefaultMaxStorageTime is how much history a cache keeps behind its newest sample when unset.
	DefaultMaxStorageTime = 10 * time.Second
	// TopicTF is the topic carrying streamed transforms.
	TopicTF = "/tf"
	// TopicTFStatic is the topic carrying latched static transforms.
	TopicTFStatic = "/tf_static"
)

// Config is the top level configuration.
type Config struct {
	ConfigFilePath string `json:"-"`

	Cache CacheConfig `json:"cache"`
	Bag   BagConfig   `json:"bag"`
}

// Validate checks the config, filling in defaults. All problems are reported together.
func (c *Config) Validate() error {
	return multierr.Combine(
		c.Cache.Validate("cache"),
		c.Bag.Validate("bag"),
	)
}

// CacheConfig bounds how much history each frame pair keeps.
type CacheConfig struct {
	// MaxStorageTime is a duration string such as "10s". "0s" keeps everything.
	MaxStorageTime string `json:"max_storage_time,omitempty"`
	// MaxRecords caps the samples per frame pair. 0 means no cap.
	MaxRecords int `json:"max_records,omitempty"`

	maxStorageTime time.Duration
}

// Validate ensures all parts of the config are valid.
func (c *CacheConfig) Validate(path string) error {
	c.maxStorageTime = DefaultMaxStorageTime
	if c.MaxStorageTime != "" {
		d, err := time.ParseDuration(c.MaxStorageTime)
		if err != nil {
			return utils.NewConfigValidationError(path, errors.Wrap(err, "error validating max_storage_time"))
		}
		if d < 0 {
			return utils.NewConfigValidationError(path, errors.Errorf("max_storage_time must not be negative, got %v", d))
		}
		c.maxStorageTime = d
	}
	if c.MaxRecords < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("max_records must not be negative, got %d", c.MaxRecords))
	}
	return nil
}

// StorageTime returns the validated storage window.
func (c *CacheConfig) StorageTime() time.Duration {
	return c.maxStorageTime
}

// TimeCacheOptions returns the cache options this config describes.
func (c *CacheConfig) TimeCacheOptions() []tf.Option {
	return []tf.Option{tf.WithMaxStorageTime(c.maxStorageTime), tf.WithMaxRecords(c.MaxRecords)}
}

// BagConfig selects what to read out of a rosbag.
type BagConfig struct {
	Topics []string `json:"topics,omitempty"`
	// StartTime and EndTime, in seconds, restrict ingestion to messages recorded in that window.
	// Both must be set for the window to apply.
	StartTime float64 `json:"start_time,omitempty"`
	EndTime   float64 `json:"end_time,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (c *BagConfig) Validate(path string) error {
	if len(c.Topics) == 0 {
		c.Topics = []string{TopicTF, TopicTFStatic}
	}
	for i, topic := range c.Topics {
		if topic == "" {
			return utils.NewConfigValidationFieldRequiredError(fmt.Sprintf("%s.topics.%d", path, i), "topic")
		}
	}
	if c.StartTime < 0 || c.EndTime < 0 {
		return utils.NewConfigValidationError(path, errors.New("start_time and end_time must not be negative"))
	}
	if c.StartTime != 0 && c.EndTime != 0 && c.EndTime < c.StartTime {
		return utils.NewConfigValidationError(path, errors.New("end_time must not be before start_time"))
	}
	return nil
}

// Window returns the recording window in whole seconds, or zeros when unbounded. Bags are filtered
// by the second a message was recorded in, so the start rounds down and the end rounds up.
func (c *BagConfig) Window() (int64, int64) {
	if c.StartTime == 0 || c.EndTime == 0 {
		return 0, 0
	}
	start := int64(math.Floor(c.StartTime))
	if start == 0 {
		// zero would read as unbounded
		start = 1
	}
	return start, int64(math.Ceil(c.EndTime))
}
