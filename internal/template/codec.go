package template

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	var err error
	if encMode, err = opts.EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{MaxArrayElements: 1 << 20}).DecMode(); err != nil {
		panic(err)
	}
}

// Marshal encodes a set as deterministic CBOR.
func Marshal(s *LandmarkSet) ([]byte, error) {
	data, err := encMode.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding landmark set %s: %w", s.ImageID, err)
	}
	return data, nil
}

func Unmarshal(data []byte) (*LandmarkSet, error) {
	var s LandmarkSet
	if err := decMode.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding landmark set: %w", err)
	}
	return &s, nil
}

// MarshalValue encodes any record with the same deterministic options, for
// stores that keep non-template payloads next to landmark sets.
func MarshalValue(v any) ([]byte, error) { return encMode.Marshal(v) }

func UnmarshalValue(data []byte, v any) error { return decMode.Unmarshal(data, v) }
