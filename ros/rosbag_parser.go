// Package ros reads transform samples out of ROS bags.
package ros

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ErrNoMessages is returned when nothing was recorded on the requested topics.
var ErrNoMessages = errors.New("no messages")

// ReadBag reads the contents of a rosbag into a gobag data structure.
func ReadBag(filename string) (*rosbag.RosBag, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open input file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	rb := rosbag.NewRosBag()

	if err := rb.Read(f); err != nil {
		return nil, errors.Wrapf(err, "unable to create ros bag, error")
	}

	return rb, nil
}

// jsonTopicKey is the key gobag files a topic's messages under in TopicsAsJSON.
func jsonTopicKey(topic string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(topic, "/"), "/", "_"))
}

// timeFilter accepts every recording time when either bound is zero. gobag filters on whole seconds.
func timeFilter(startTime, endTime int64) func(int64) bool {
	if startTime == 0 || endTime == 0 {
		return func(int64) bool { return true }
	}
	return func(timestamp int64) bool {
		return timestamp >= startTime && timestamp <= endTime
	}
}

// AllMessagesForTopic returns all messages for a specific topic in the ros bag recorded between
// startTime and endTime, in whole seconds inclusive. Zero bounds disable the filter.
func AllMessagesForTopic(rb *rosbag.RosBag, topic string, startTime, endTime int64) ([]map[string]interface{}, error) {
	key := jsonTopicKey(topic)
	// gobag appends to what an earlier parse left behind
	if buf, ok := rb.TopicsAsJSON[key]; ok {
		buf.Reset()
	}
	if err := rb.ParseTopicsToJSON(
		"",
		timeFilter(startTime, endTime),
		func(t string) bool { return t == topic },
		false,
	); err != nil {
		return nil, errors.Wrapf(err, "error while parsing bag to JSON")
	}

	msgs := rb.TopicsAsJSON[key]
	if msgs == nil || msgs.Len() == 0 {
		return nil, errors.Wrapf(ErrNoMessages, "topic %s", topic)
	}
	return decodeMessageLines(msgs)
}

// decodeMessageLines decodes newline separated JSON objects as written by gobag.
func decodeMessageLines(r io.Reader) ([]map[string]interface{}, error) {
	all := []map[string]interface{}{}
	br := bufio.NewReader(r)
	for {
		data, err := br.ReadBytes('\n')
		if len(bytes.TrimSpace(data)) > 0 {
			message := map[string]interface{}{}
			if err := json.Unmarshal(data, &message); err != nil {
				return nil, errors.Wrapf(err, "message %d", len(all))
			}
			all = append(all, message)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
	}

	return all, nil
}
