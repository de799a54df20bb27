// Package main is the tfcache command, which loads the transforms recorded in a rosbag and answers
// lookups against them.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"go.viam.com/tfcache/config"
	"go.viam.com/tfcache/logging"
	"go.viam.com/tfcache/ros"
	"go.viam.com/tfcache/tf"
	"go.viam.com/tfcache/tf/buffer"
)

const (
	// Flags.
	flagConfig = "config"
	flagDebug  = "debug"
	flagBag    = "bag"
	flagParent = "parent"
	flagChild  = "child"
	flagTime   = "time"
)

var logger = logging.NewLogger("tfcache")

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	var cfg *config.Config
	bagFlag := &cli.StringFlag{
		Name:     flagBag,
		Aliases:  []string{"b"},
		Usage:    "read transforms from `FILE`",
		Required: true,
	}

	return &cli.App{
		Name:      "tfcache",
		Usage:     "query the transform history recorded in a rosbag",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`; without one the whole bag is kept, with no storage window",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger.SetLevel(zapcore.DebugLevel)
			}
			if path := c.String(flagConfig); path != "" {
				var err error
				cfg, err = config.Read(path, logger)
				return err
			}
			cfg = config.DefaultUnbounded()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "pairs",
				Usage: "list the frame pairs in a bag with their time range",
				Flags: []cli.Flag{bagFlag},
				Action: func(c *cli.Context) error {
					b, err := loadBuffer(c.String(flagBag), cfg)
					if err != nil {
						return err
					}
					printPairs(c.App.Writer, b.FramePairs())
					return nil
				},
			},
			{
				Name:  "lookup",
				Usage: "print the transform from parent to child at a time",
				Flags: []cli.Flag{
					bagFlag,
					&cli.StringFlag{Name: flagParent, Required: true, Usage: "parent frame"},
					&cli.StringFlag{Name: flagChild, Required: true, Usage: "child frame"},
					&cli.StringFlag{Name: flagTime, Value: "0", Usage: "time in seconds; 0 is the latest sample"},
				},
				Action: func(c *cli.Context) error {
					stamp, err := parseStamp(c.String(flagTime))
					if err != nil {
						return err
					}
					b, err := loadBuffer(c.String(flagBag), cfg)
					if err != nil {
						return err
					}
					t, err := b.LookupTransform(c.String(flagParent), c.String(flagChild), stamp)
					if err != nil {
						return err
					}
					printTransform(c.App.Writer, c.String(flagParent), c.String(flagChild), t)
					return nil
				},
			},
		},
	}
}

// parseStamp parses a time given as decimal seconds with at most nanosecond precision. The digits
// are parsed as integers so epoch times keep every nanosecond.
func parseStamp(s string) (tf.Stamp, error) {
	if strings.HasPrefix(s, "-") {
		return tf.Stamp{}, errors.Errorf("time must not be negative, got %q", s)
	}
	secPart, fracPart, hasFrac := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return tf.Stamp{}, errors.Wrapf(err, "invalid time %q", s)
	}
	if !hasFrac {
		return tf.NewStamp(sec, 0), nil
	}
	if fracPart == "" || len(fracPart) > 9 || strings.ContainsAny(fracPart, "+-") {
		return tf.Stamp{}, errors.Errorf("invalid time %q: expected 1 to 9 fractional digits", s)
	}
	nsec, err := strconv.ParseInt(fracPart+strings.Repeat("0", 9-len(fracPart)), 10, 64)
	if err != nil {
		return tf.Stamp{}, errors.Wrapf(err, "invalid time %q", s)
	}
	return tf.NewStamp(sec, nsec), nil
}

func loadBuffer(path string, cfg *config.Config) (*buffer.Buffer, error) {
	rb, err := ros.ReadBag(path)
	if err != nil {
		return nil, err
	}
	start, end := cfg.Bag.Window()
	samples, err := ros.TransformsFromBag(rb, cfg.Bag.Topics, start, end, logger.Sublogger("ros"))
	if err != nil {
		return nil, err
	}
	b := buffer.New(logger.Sublogger("buffer"), cfg.Cache.TimeCacheOptions()...)
	if _, err := ros.Ingest(b, samples, logger); err != nil {
		return nil, err
	}
	return b, nil
}

func printPairs(w io.Writer, pairs []buffer.PairInfo) {
	for _, p := range pairs {
		fmt.Fprintf(w, "%-30s %6d samples  %v .. %v\n", p.FramePair, p.Len, p.Oldest, p.Newest)
	}
}

func printTransform(w io.Writer, parent, child string, t tf.StampedTransform) {
	fmt.Fprintf(w, "%s -> %s at %v\n", parent, child, t.Stamp)
	fmt.Fprintf(w, "  translation: [%.6f, %.6f, %.6f]\n", t.Translation.X, t.Translation.Y, t.Translation.Z)
	fmt.Fprintf(w, "  rotation:    [x %.6f, y %.6f, z %.6f, w %.6f]\n",
		t.Rotation.Imag, t.Rotation.Jmag, t.Rotation.Kmag, t.Rotation.Real)
}
