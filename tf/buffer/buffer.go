// Package buffer keeps one transform cache per parent/child frame pair and serializes access to them.
// It answers lookups for pairs that were published directly; it does not chain transforms through
// intermediate frames.
package buffer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/tfcache/logging"
	"go.viam.com/tfcache/tf"
)

// ErrUnknownFramePair is returned when no sample was ever stored for a parent/child pair.
var ErrUnknownFramePair = errors.New("unknown frame pair")

// FramePair names the parent and child frame of a cache.
type FramePair struct {
	Parent string
	Child  string
}

func (p FramePair) String() string {
	return fmt.Sprintf("%s->%s", p.Parent, p.Child)
}

type pairKey struct {
	parent tf.FrameID
	child  tf.FrameID
}

// Buffer owns the caches of every frame pair it has seen. It is safe for concurrent use: inserts take
// the buffer exclusively and lookups share it.
type Buffer struct {
	logger    logging.Logger
	frames    *frameRegistry
	cacheOpts []tf.Option

	mu     sync.RWMutex
	caches map[pairKey]tf.TimeCache
}

// New returns an empty buffer whose caches are built with the given options.
func New(logger logging.Logger, cacheOpts ...tf.Option) *Buffer {
	return &Buffer{
		logger:    logger,
		frames:    newFrameRegistry(),
		cacheOpts: cacheOpts,
		caches:    map[pairKey]tf.TimeCache{},
	}
}

// FrameID returns the id interned for name.
func (b *Buffer) FrameID(name string) (tf.FrameID, bool) {
	return b.frames.lookup(name)
}

// FrameName returns the name interned as id.
func (b *Buffer) FrameName(id tf.FrameID) (string, bool) {
	return b.frames.name(id)
}

// SetTransform stores t as a sample of parent->child. The frame ids on t are overwritten with the
// interned ids of the names. It returns false if the cache rejected the sample.
func (b *Buffer) SetTransform(parent, child string, t tf.StampedTransform) (bool, error) {
	if parent == "" || child == "" {
		return false, errors.New("parent and child frame names must be set")
	}
	if parent == child {
		return false, errors.Errorf("frame %q cannot be its own parent", parent)
	}
	t.FrameID = b.frames.intern(parent)
	t.ChildFrameID = b.frames.intern(child)
	key := pairKey{t.FrameID, t.ChildFrameID}

	b.mu.Lock()
	cache, ok := b.caches[key]
	if !ok {
		cache = tf.NewTimeCache(b.cacheOpts...)
		b.caches[key] = cache
	}
	accepted := cache.InsertData(t)
	b.mu.Unlock()

	if !ok {
		b.logger.Debugw("created cache", "pair", FramePair{parent, child}.String())
	}
	if !accepted {
		b.logger.Debugw("rejected stale transform", "pair", FramePair{parent, child}.String(), "stamp", t.Stamp.String())
	}
	recordInsert(accepted)
	return accepted, nil
}

func (b *Buffer) cacheFor(parent, child string) (tf.TimeCache, error) {
	parentID, okP := b.frames.lookup(parent)
	childID, okC := b.frames.lookup(child)
	if okP && okC {
		if cache, ok := b.caches[pairKey{parentID, childID}]; ok {
			return cache, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownFramePair, "%s", FramePair{parent, child})
}

// LookupTransform returns the parent->child transform at stamp. The zero stamp asks for the latest sample.
func (b *Buffer) LookupTransform(parent, child string, stamp tf.Stamp) (tf.StampedTransform, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cache, err := b.cacheFor(parent, child)
	if err != nil {
		recordLookup(err)
		return tf.StampedTransform{}, err
	}
	t, err := cache.GetData(stamp)
	recordLookup(err)
	if err != nil {
		return tf.StampedTransform{}, errors.Wrapf(err, "looking up %s", FramePair{parent, child})
	}
	return t, nil
}

// Parent returns the parent of child at stamp, from the first cache of child that can interpolate at stamp.
func (b *Buffer) Parent(child string, stamp tf.Stamp) (string, error) {
	childID, ok := b.frames.lookup(child)
	if !ok {
		return "", errors.Wrapf(tf.ErrNoParent, "unknown frame %q", child)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, key := range b.sortedKeys() {
		if key.child != childID {
			continue
		}
		id, err := b.caches[key].GetParent(stamp)
		if err != nil {
			continue
		}
		name, _ := b.frames.name(id)
		return name, nil
	}
	return "", errors.Wrapf(tf.ErrNoParent, "frame %q at %v", child, stamp)
}

// LatestTime returns the stamp of the newest sample of parent->child.
func (b *Buffer) LatestTime(parent, child string) (tf.Stamp, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cache, err := b.cacheFor(parent, child)
	if err != nil {
		return tf.Stamp{}, err
	}
	stamp, ok := cache.LatestTimestamp()
	if !ok {
		return tf.Stamp{}, errors.Wrapf(tf.ErrTransformNotFound, "%s is empty", FramePair{parent, child})
	}
	return stamp, nil
}

// PairInfo summarizes one cache.
type PairInfo struct {
	FramePair
	Len    int
	Oldest tf.Stamp
	Newest tf.Stamp
}

// FramePairs describes every cache, ordered by parent then child name.
func (b *Buffer) FramePairs() []PairInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	infos := lo.Map(lo.Keys(b.caches), func(key pairKey, _ int) PairInfo {
		cache := b.caches[key]
		parent, _ := b.frames.name(key.parent)
		child, _ := b.frames.name(key.child)
		oldest, _ := cache.OldestTimestamp()
		newest, _ := cache.LatestTimestamp()
		return PairInfo{FramePair: FramePair{parent, child}, Len: cache.Len(), Oldest: oldest, Newest: newest}
	})
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Parent != infos[j].Parent {
			return infos[i].Parent < infos[j].Parent
		}
		return infos[i].Child < infos[j].Child
	})
	return infos
}

// Clear empties every cache. Frame names stay interned.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cache := range b.caches {
		cache.Clear()
	}
}

// sortedKeys returns cache keys in id order so lookups over several caches are deterministic.
// Callers hold mu.
func (b *Buffer) sortedKeys() []pairKey {
	keys := lo.Keys(b.caches)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].parent != keys[j].parent {
			return keys[i].parent < keys[j].parent
		}
		return keys[i].child < keys[j].child
	})
	return keys
}
