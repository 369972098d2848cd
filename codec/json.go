package codec

import "encoding/json"

// JSON is the default codec. Its payload is UTF-8 text, so values stored
// through it stay readable by any other client of the distributed store.
type JSON struct{}

var _ Codec = JSON{}

func (JSON) Encode(v any) ([]byte, error) { return json.Marshal(v) }
func (JSON) Decode(b []byte, v any) error { return json.Unmarshal(b, v) }
