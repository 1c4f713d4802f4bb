package recorder

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// ErrNoPayload reports an envelope without an event payload.
var ErrNoPayload = errors.New("envelope payload is nil")

const maxCaptureLineBytes = 16 * 1024 * 1024

// captureRecord is the JSON-lines form of one envelope.
type captureRecord struct {
	ID          uint64          `json:"id"`
	TimestampNs int64           `json:"ts"`
	Priority    uint8           `json:"priority"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
}

// WriteCapture streams envelopes to w as JSON lines, one envelope per line.
func WriteCapture(w io.Writer, events []schema.Envelope) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, env := range events {
		if env.Event == nil {
			return ErrNoPayload
		}
		payload, err := json.Marshal(env.Event)
		if err != nil {
			return errors.Wrapf(err, "marshal payload, type: %s", env.Event.EventType())
		}
		rec := captureRecord{
			ID:          env.ID,
			TimestampNs: env.TimestampNs,
			Priority:    env.Priority,
			Type:        env.Event.EventType(),
			Payload:     payload,
		}
		if err := enc.Encode(rec); err != nil {
			return errors.Wrap(err, "encode capture record")
		}
	}
	return bw.Flush()
}

// ReadCapture decodes JSON-line envelopes from r until EOF. Payloads are
// reconstructed through the schema registry; blank lines are skipped.
func ReadCapture(r io.Reader) ([]schema.Envelope, error) {
	var out []schema.Envelope
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxCaptureLineBytes)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec captureRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, errors.Wrapf(err, "parse capture line %d", line)
		}
		ev, err := schema.Decode(rec.Type, rec.Payload)
		if err != nil {
			return nil, errors.Wrapf(err, "decode capture line %d", line)
		}
		out = append(out, schema.Envelope{
			ID:          rec.ID,
			TimestampNs: rec.TimestampNs,
			Priority:    rec.Priority,
			Event:       ev,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read capture")
	}
	return out, nil
}

// SaveCapture writes envelopes to a capture file at path.
func SaveCapture(path string, events []schema.Envelope) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create capture file")
	}
	if err := WriteCapture(f, events); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close capture file")
	}
	return nil
}

// LoadCapture reads envelopes from a capture file at path.
func LoadCapture(path string) ([]schema.Envelope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open capture file")
	}
	defer f.Close()
	return ReadCapture(f)
}
