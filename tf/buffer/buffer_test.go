package buffer

import (
	"sync"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.opencensus.io/stats/view"
	"go.viam.com/test"

	"go.viam.com/tfcache/logging"
	"go.viam.com/tfcache/testutils"
	"go.viam.com/tfcache/tf"
)

func TestMain(m *testing.M) {
	testutils.VerifyTestMain(m)
}

func at(nanos int64, x float64) tf.StampedTransform {
	t := tf.NewStampedTransform(0, 0, tf.StampFromNanos(nanos))
	t.Translation = r3.Vector{X: x}
	return t
}

func TestSetAndLookup(t *testing.T) {
	b := New(logging.NewTestLogger(t))

	ok, err := b.SetTransform("world", "base", at(100, 1))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	ok, err = b.SetTransform("world", "base", at(200, 2))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)

	out, err := b.LookupTransform("world", "base", tf.StampFromNanos(150))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Translation.X, test.ShouldAlmostEqual, 1.5)
	worldID, ok := b.FrameID("world")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, out.FrameID, test.ShouldEqual, worldID)
	name, ok := b.FrameName(out.ChildFrameID)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, name, test.ShouldEqual, "base")

	latest, err := b.LookupTransform("world", "base", tf.Stamp{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, latest.Stamp, test.ShouldResemble, tf.StampFromNanos(200))

	_, err = b.LookupTransform("world", "base", tf.StampFromNanos(300))
	test.That(t, errors.Is(err, tf.ErrAfterNewestSample), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "world->base")
}

func TestUnknownPair(t *testing.T) {
	b := New(logging.NewTestLogger(t))
	_, err := b.SetTransform("world", "base", at(100, 1))
	test.That(t, err, test.ShouldBeNil)

	_, err = b.LookupTransform("base", "world", tf.StampFromNanos(100))
	test.That(t, errors.Is(err, ErrUnknownFramePair), test.ShouldBeTrue)
	_, err = b.LookupTransform("world", "arm", tf.StampFromNanos(100))
	test.That(t, errors.Is(err, ErrUnknownFramePair), test.ShouldBeTrue)
	_, err = b.LatestTime("nope", "base")
	test.That(t, errors.Is(err, ErrUnknownFramePair), test.ShouldBeTrue)

	_, ok := b.FrameName(0)
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = b.FrameID("arm")
	test.That(t, ok, test.ShouldBeFalse)
}

func TestSetTransformInvalidNames(t *testing.T) {
	b := New(logging.NewTestLogger(t))
	_, err := b.SetTransform("", "base", at(1, 0))
	test.That(t, err, test.ShouldNotBeNil)
	_, err = b.SetTransform("base", "base", at(1, 0))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, b.FramePairs(), test.ShouldBeEmpty)
}

func TestParent(t *testing.T) {
	b := New(logging.NewTestLogger(t))
	for _, n := range []int64{100, 200} {
		_, err := b.SetTransform("odom", "base", at(n, 0))
		test.That(t, err, test.ShouldBeNil)
	}
	for _, n := range []int64{300, 400} {
		_, err := b.SetTransform("map", "base", at(n, 0))
		test.That(t, err, test.ShouldBeNil)
	}

	parent, err := b.Parent("base", tf.StampFromNanos(150))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parent, test.ShouldEqual, "odom")

	parent, err = b.Parent("base", tf.StampFromNanos(350))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parent, test.ShouldEqual, "map")

	_, err = b.Parent("base", tf.StampFromNanos(250))
	test.That(t, errors.Is(err, tf.ErrNoParent), test.ShouldBeTrue)
	_, err = b.Parent("gripper", tf.StampFromNanos(150))
	test.That(t, errors.Is(err, tf.ErrNoParent), test.ShouldBeTrue)
}

func TestFramePairsAndClear(t *testing.T) {
	b := New(logging.NewTestLogger(t))
	_, err := b.SetTransform("world", "base", at(100, 0))
	test.That(t, err, test.ShouldBeNil)
	_, err = b.SetTransform("world", "base", at(300, 0))
	test.That(t, err, test.ShouldBeNil)
	_, err = b.SetTransform("base", "arm", at(200, 0))
	test.That(t, err, test.ShouldBeNil)

	pairs := b.FramePairs()
	test.That(t, pairs, test.ShouldResemble, []PairInfo{
		{FramePair: FramePair{"base", "arm"}, Len: 1, Oldest: tf.StampFromNanos(200), Newest: tf.StampFromNanos(200)},
		{FramePair: FramePair{"world", "base"}, Len: 2, Oldest: tf.StampFromNanos(100), Newest: tf.StampFromNanos(300)},
	})

	latest, err := b.LatestTime("world", "base")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, latest, test.ShouldResemble, tf.StampFromNanos(300))

	b.Clear()
	_, err = b.LatestTime("world", "base")
	test.That(t, errors.Is(err, tf.ErrTransformNotFound), test.ShouldBeTrue)
	_, err = b.LookupTransform("world", "base", tf.Stamp{})
	test.That(t, errors.Is(err, tf.ErrTransformNotFound), test.ShouldBeTrue)
	for _, p := range b.FramePairs() {
		test.That(t, p.Len, test.ShouldEqual, 0)
	}
}

func TestRejectedInsertIsLogged(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	b := New(logger, tf.WithMaxStorageTime(time.Second))

	ok, err := b.SetTransform("world", "base", at(int64(5*time.Second), 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeTrue)
	ok, err = b.SetTransform("world", "base", at(int64(time.Second), 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, logs.FilterMessage("created cache").Len(), test.ShouldEqual, 1)
	rejected := logs.FilterMessage("rejected stale transform").All()
	test.That(t, len(rejected), test.ShouldEqual, 1)
	test.That(t, rejected[0].ContextMap()["pair"], test.ShouldEqual, "world->base")
}

func TestRejectedWhenFull(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	b := New(logger, tf.WithMaxRecords(2))

	for _, n := range []int64{300, 200} {
		ok, err := b.SetTransform("world", "base", at(n, 0))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ok, test.ShouldBeTrue)
	}
	ok, err := b.SetTransform("world", "base", at(100, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, logs.FilterMessage("rejected stale transform").Len(), test.ShouldEqual, 1)

	pairs := b.FramePairs()
	test.That(t, len(pairs), test.ShouldEqual, 1)
	test.That(t, pairs[0].Len, test.ShouldEqual, 2)
	test.That(t, pairs[0].Oldest, test.ShouldResemble, tf.StampFromNanos(200))
}

func TestMetrics(t *testing.T) {
	test.That(t, RegisterViews(), test.ShouldBeNil)
	defer UnregisterViews()

	b := New(logging.NewTestLogger(t))
	_, err := b.SetTransform("world", "base", at(100, 0))
	test.That(t, err, test.ShouldBeNil)
	_, err = b.LookupTransform("world", "base", tf.StampFromNanos(100))
	test.That(t, err, test.ShouldBeNil)
	_, err = b.LookupTransform("world", "base", tf.StampFromNanos(101))
	test.That(t, err, test.ShouldNotBeNil)

	rows, err := view.RetrieveData("tfcache/lookups")
	test.That(t, err, test.ShouldBeNil)
	counts := map[string]int64{}
	for _, row := range rows {
		counts[row.Tags[0].Value] = row.Data.(*view.CountData).Value
	}
	test.That(t, counts["none"], test.ShouldEqual, int64(1))
	test.That(t, counts["single_sample_mismatch"], test.ShouldEqual, int64(1))

	rows, err = view.RetrieveData("tfcache/inserts")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(rows), test.ShouldEqual, 1)
	test.That(t, rows[0].Tags[0].Value, test.ShouldEqual, "accepted")
}

func TestConcurrentAccess(t *testing.T) {
	b := New(logging.NewBlankLogger("buffer"))
	_, err := b.SetTransform("world", "base", at(0, 0))
	test.That(t, err, test.ShouldBeNil)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 1; i <= 100; i++ {
				_, err := b.SetTransform("world", "base", at(int64(i*4+w), float64(i)))
				test.That(t, err, test.ShouldBeNil)
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, err := b.LookupTransform("world", "base", tf.Stamp{})
				test.That(t, err, test.ShouldBeNil)
				b.FramePairs()
			}
		}()
	}
	wg.Wait()

	pairs := b.FramePairs()
	test.That(t, len(pairs), test.ShouldEqual, 1)
	test.That(t, pairs[0].Len, test.ShouldEqual, 401)
	test.That(t, pairs[0].Newest, test.ShouldResemble, tf.StampFromNanos(403))
}
