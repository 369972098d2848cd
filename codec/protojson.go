package codec

import (
	"encoding/json"
	"reflect"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// ProtoJSON stores proto.Message values in their canonical protojson text form
// and falls back to encoding/json for everything else. Decode accepts either a
// message pointer or a pointer to a (possibly nil) message pointer, so
// GetAs[*mypb.User] works without preallocating.
type ProtoJSON struct {
	Marshal   protojson.MarshalOptions
	Unmarshal protojson.UnmarshalOptions
}

var _ Codec = ProtoJSON{}

func (c ProtoJSON) Encode(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return c.Marshal.Marshal(m)
	}
	return json.Marshal(v)
}

func (c ProtoJSON) Decode(b []byte, v any) error {
	if m, ok := v.(proto.Message); ok && !reflect.ValueOf(m).IsNil() {
		return c.Unmarshal.Unmarshal(b, m)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		el := rv.Elem()
		if el.Kind() == reflect.Pointer && el.Type().Implements(protoMessageType) {
			if el.IsNil() {
				el.Set(reflect.New(el.Type().Elem()))
			}
			return c.Unmarshal.Unmarshal(b, el.Interface().(proto.Message))
		}
	}
	return json.Unmarshal(b, v)
}

var protoMessageType = reflect.TypeOf((*proto.Message)(nil)).Elem()
