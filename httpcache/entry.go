package httpcache

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// Entry is a cached response payload.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // epoch ms
	Version   string          `json:"version"`
}

var errNoData = errors.New("cache entry has no data")

// encodeEntry writes the entry with Data embedded verbatim so a hit
// replays exactly the bytes received.
func encodeEntry(e Entry) []byte {
	version, _ := json.Marshal(e.Version)

	var buf bytes.Buffer
	buf.Grow(len(e.Data) + len(version) + 48)
	buf.WriteString(`{"data":`)
	buf.Write(e.Data)
	buf.WriteString(`,"timestamp":`)
	buf.WriteString(strconv.FormatInt(e.Timestamp, 10))
	buf.WriteString(`,"version":`)
	buf.Write(version)
	buf.WriteByte('}')
	return buf.Bytes()
}

func decodeEntry(raw string) (Entry, error) {
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Entry{}, err
	}
	if len(e.Data) == 0 {
		return Entry{}, errNoData
	}
	return e, nil
}

// Fresh reports whether the entry may be served at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration, version string) bool {
	if e.Version != version {
		return false
	}
	return now.UnixMilli()-e.Timestamp < ttl.Milliseconds()
}
