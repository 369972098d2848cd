package hybridcache

import (
	"reflect"
	"strconv"
	"strings"
)

// encode returns the stored text form of v: natural text for primitive
// kinds, codec output for everything else.
func (cc *Cache) encode(key string, v any) (string, error) {
	if s, ok := primitiveText(v); ok {
		return s, nil
	}
	b, err := cc.codec.Encode(v)
	if err != nil {
		return "", &SerializationError{Op: "encode", Key: key, Err: err}
	}
	return string(b), nil
}

func primitiveText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	case nil:
		return "", false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), true
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes()), true
		}
	}
	return "", false
}

// decodeText is the inverse of encode. ok=false with a nil error means the
// text decodes to nothing (a stored JSON null).
func (cc *Cache) decodeText(s string, out any) (bool, error) {
	rv := reflect.ValueOf(out).Elem()
	switch rv.Kind() {
	case reflect.String:
		rv.SetString(s)
		return true, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, err
		}
		rv.SetBool(b)
		return true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, rv.Type().Bits())
		if err != nil {
			return false, err
		}
		rv.SetInt(n)
		return true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(s, 10, rv.Type().Bits())
		if err != nil {
			return false, err
		}
		rv.SetUint(n)
		return true, nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, rv.Type().Bits())
		if err != nil {
			return false, err
		}
		rv.SetFloat(f)
		return true, nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			rv.SetBytes([]byte(s))
			return true, nil
		}
	}

	if strings.TrimSpace(s) == "null" {
		return false, nil
	}
	// untyped reads get the stored text unchanged
	if rv.Kind() == reflect.Interface && rv.NumMethod() == 0 {
		rv.Set(reflect.ValueOf(s))
		return true, nil
	}
	if err := cc.codec.Decode([]byte(s), out); err != nil {
		return false, err
	}
	return true, nil
}
