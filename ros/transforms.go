package ros

import (
	"io"
	"strings"

	"github.com/edaniels/gobag/rosbag"
	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/tfcache/logging"
	"go.viam.com/tfcache/spatialmath"
	"go.viam.com/tfcache/tf"
	"go.viam.com/tfcache/tf/buffer"
)

// NamedTransform is a transform sample whose frames are still names.
type NamedTransform struct {
	Parent string
	Child  string
	tf.StampedTransform
}

// TransformsFromBag collects the transforms published on the given topics, ordered as recorded per topic.
// startTime and endTime bound the recording time in whole seconds; zero bounds disable the filter.
// A topic with nothing recorded contributes no samples. ErrNoMessages is returned only when none of
// the topics had any.
func TransformsFromBag(
	rb *rosbag.RosBag,
	topics []string,
	startTime, endTime int64,
	logger logging.Logger,
) ([]NamedTransform, error) {
	var all []NamedTransform
	found := false
	for _, topic := range topics {
		msgs, err := AllMessagesForTopic(rb, topic, startTime, endTime)
		if errors.Is(err, ErrNoMessages) {
			logger.Debugw("no messages on topic", "topic", topic, "start", startTime, "end", endTime)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", topic)
		}
		found = true
		samples, err := transformsFromMessages(msgs)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %s", topic)
		}
		all = append(all, samples...)
	}
	if !found {
		return nil, errors.Wrapf(ErrNoMessages, "topics %v", topics)
	}
	return all, nil
}

// DecodeTFMessages reads newline separated TFMessage JSON records, the format gobag emits for a topic.
func DecodeTFMessages(r io.Reader) ([]NamedTransform, error) {
	msgs, err := decodeMessageLines(r)
	if err != nil {
		return nil, err
	}
	return transformsFromMessages(msgs)
}

func transformsFromMessages(msgs []map[string]interface{}) ([]NamedTransform, error) {
	var out []NamedTransform
	for i, raw := range msgs {
		var msg TFMessage
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &msg,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(raw); err != nil {
			return nil, errors.Wrapf(err, "message %d", i)
		}
		for j, ts := range msg.Data.Transforms {
			sample, err := toNamedTransform(ts)
			if err != nil {
				return nil, errors.Wrapf(err, "message %d transform %d", i, j)
			}
			out = append(out, sample)
		}
	}
	return out, nil
}

// toNamedTransform converts a message, dropping the leading slash of old style frame names and
// normalizing the rotation.
func toNamedTransform(ts TransformStamped) (NamedTransform, error) {
	parent := strings.TrimPrefix(ts.Header.FrameID, "/")
	child := strings.TrimPrefix(ts.ChildFrameID, "/")
	if parent == "" || child == "" {
		return NamedTransform{}, errors.Errorf("missing frame name (parent %q, child %q)", parent, child)
	}

	rot := ts.Transform.Rotation
	q := quat.Number{Real: rot.W, Imag: rot.X, Jmag: rot.Y, Kmag: rot.Z}
	if quat.Abs(q) == 0 {
		return NamedTransform{}, errors.Errorf("%s->%s has a zero rotation quaternion", parent, child)
	}

	trans := ts.Transform.Translation
	return NamedTransform{
		Parent: parent,
		Child:  child,
		StampedTransform: tf.StampedTransform{
			Translation: r3.Vector{X: trans.X, Y: trans.Y, Z: trans.Z},
			Rotation:    spatialmath.Normalize(q),
			Stamp:       tf.NewStamp(ts.Header.Stamp.Secs, ts.Header.Stamp.Nsecs),
		},
	}, nil
}

// Ingest stores samples into b and returns how many were accepted.
func Ingest(b *buffer.Buffer, samples []NamedTransform, logger logging.Logger) (int, error) {
	accepted := 0
	for _, s := range samples {
		ok, err := b.SetTransform(s.Parent, s.Child, s.StampedTransform)
		if err != nil {
			return accepted, err
		}
		if ok {
			accepted++
		}
	}
	logger.Infow("ingested transforms", "accepted", accepted, "rejected", len(samples)-accepted)
	return accepted, nil
}
