package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/tfcache/logging"
	"go.viam.com/tfcache/tf"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	test.That(t, cfg.Cache.StorageTime(), test.ShouldEqual, DefaultMaxStorageTime)
	test.That(t, cfg.Cache.MaxRecords, test.ShouldEqual, 0)
	test.That(t, cfg.Bag.Topics, test.ShouldResemble, []string{TopicTF, TopicTFStatic})
	start, end := cfg.Bag.Window()
	test.That(t, start, test.ShouldEqual, int64(0))
	test.That(t, end, test.ShouldEqual, int64(0))
}

func TestFromReader(t *testing.T) {
	logger := logging.NewTestLogger(t)
	cfg, err := FromReader("inline", strings.NewReader(`{
		"cache": {"max_storage_time": "2s", "max_records": 5},
		"bag": {"topics": ["/tf"], "start_time": 1.5, "end_time": 2}
	}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, "inline")
	test.That(t, cfg.Cache.StorageTime(), test.ShouldEqual, 2*time.Second)
	test.That(t, cfg.Cache.MaxRecords, test.ShouldEqual, 5)
	test.That(t, cfg.Bag.Topics, test.ShouldResemble, []string{"/tf"})
	start, end := cfg.Bag.Window()
	test.That(t, start, test.ShouldEqual, int64(1))
	test.That(t, end, test.ShouldEqual, int64(2))

	tc := tf.NewTimeCache(cfg.Cache.TimeCacheOptions()...)
	for i := int64(1); i <= 10; i++ {
		tc.InsertData(tf.NewStampedTransform(1, 2, tf.StampFromNanos(i)))
	}
	test.That(t, tc.Len(), test.ShouldEqual, 5)
}

func TestWindowSeconds(t *testing.T) {
	for _, tc := range []struct {
		name       string
		start, end float64
		expStart   int64
		expEnd     int64
	}{
		{"unbounded", 0, 0, 0, 0},
		{"start only", 1700000000, 0, 0, 0},
		{"whole seconds", 1700000000, 1700000010, 1700000000, 1700000010},
		{"fractions widen", 1700000000.25, 1700000010.5, 1700000000, 1700000011},
		{"below one second", 0.5, 0.75, 1, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := BagConfig{StartTime: tc.start, EndTime: tc.end}
			test.That(t, c.Validate("bag"), test.ShouldBeNil)
			start, end := c.Window()
			test.That(t, start, test.ShouldEqual, tc.expStart)
			test.That(t, end, test.ShouldEqual, tc.expEnd)
		})
	}
}

func TestDefaultUnbounded(t *testing.T) {
	cfg := DefaultUnbounded()
	test.That(t, cfg.Cache.StorageTime(), test.ShouldEqual, time.Duration(0))
	test.That(t, cfg.Bag.Topics, test.ShouldResemble, Default().Bag.Topics)

	tc := tf.NewTimeCache(cfg.Cache.TimeCacheOptions()...)
	for _, sec := range []int64{100, 1, 50} {
		test.That(t, tc.InsertData(tf.NewStampedTransform(1, 2, tf.NewStamp(sec, 0))), test.ShouldBeTrue)
	}
	test.That(t, tc.Len(), test.ShouldEqual, 3)
}

func TestFromReaderEmpty(t *testing.T) {
	cfg, err := FromReader("", strings.NewReader(""), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Cache.StorageTime(), test.ShouldEqual, DefaultMaxStorageTime)
}

func TestFromReaderInvalid(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, tc := range []struct {
		name     string
		contents string
		errMsg   string
	}{
		{"bad json", `{"cache": `, "cannot parse"},
		{"unknown field", `{"cache": {"max_age": "1s"}}`, "unknown field"},
		{"bad duration", `{"cache": {"max_storage_time": "soon"}}`, "max_storage_time"},
		{"negative duration", `{"cache": {"max_storage_time": "-1s"}}`, "must not be negative"},
		{"negative records", `{"cache": {"max_records": -1}}`, "max_records"},
		{"empty topic", `{"bag": {"topics": ["/tf", ""]}}`, "bag.topics.1"},
		{"inverted window", `{"bag": {"start_time": 5, "end_time": 1}}`, "end_time"},
		{"negative window", `{"bag": {"start_time": -5, "end_time": 1}}`, "must not be negative"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromReader("bad.json", strings.NewReader(tc.contents), logger)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errMsg)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := &Config{
		Cache: CacheConfig{MaxRecords: -1},
		Bag:   BagConfig{Topics: []string{""}},
	}
	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "max_records")
	test.That(t, err.Error(), test.ShouldContainSubstring, "bag.topics.0")
}

func TestReadSubstitutesEnv(t *testing.T) {
	t.Setenv("TFCACHE_WINDOW", "750ms")
	path := filepath.Join(t.TempDir(), "tfcache.json")
	err := os.WriteFile(path, []byte(`{"cache": {"max_storage_time": "${TFCACHE_WINDOW}"}}`), 0o600)
	test.That(t, err, test.ShouldBeNil)

	cfg, err := Read(path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Cache.StorageTime(), test.ShouldEqual, 750*time.Millisecond)

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}
