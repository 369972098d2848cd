// Package codec holds the serializers used to turn structured values into the
// payload stored by either backend.
package codec

// Codec encodes values to a payload and decodes a payload into a pointer.
// Decode follows encoding/json conventions: v must be a non-nil pointer.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(b []byte, v any) error
}
