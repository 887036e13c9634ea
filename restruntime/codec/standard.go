package codec

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"reflect"
)

// StandardCodec implements Codec with the stdlib's encoding/json and
// encoding/xml, plus a struct-tag-driven form-urlencoded encoder. No
// third-party (de)serialization library appears in the example pack for
// general request/response body handling (see DESIGN.md), so the two
// stdlib packages are used directly here; everything else in this module
// (transport, retry, tracing, logging, request ids) comes from the
// example pack's third-party stack.
type StandardCodec struct{}

// NewStandardCodec returns the module's default Codec.
func NewStandardCodec() *StandardCodec {
	return &StandardCodec{}
}

func (StandardCodec) Serialize(value any, encoding Encoding) ([]byte, error) {
	switch encoding {
	case JSON:
		return json.Marshal(value)
	case XML:
		return xml.Marshal(value)
	case FormURLEncoded:
		return serializeForm(value)
	case Text:
		if s, ok := value.(string); ok {
			return []byte(s), nil
		}
		return nil, fmt.Errorf("codec: text encoding requires a string value, got %T", value)
	default:
		return nil, unsupported(encoding)
	}
}

func (StandardCodec) Deserialize(data []byte, target any, encoding Encoding) error {
	if len(data) == 0 {
		return nil
	}
	switch encoding {
	case JSON:
		return json.Unmarshal(data, target)
	case XML:
		return xml.Unmarshal(data, target)
	case FormURLEncoded:
		return deserializeForm(data, target)
	case Text:
		if sp, ok := target.(*string); ok {
			*sp = string(data)
			return nil
		}
		return fmt.Errorf("codec: text decoding requires a *string target, got %T", target)
	default:
		return unsupported(encoding)
	}
}

func (StandardCodec) EncodingFromHeaders(contentType string) (Encoding, error) {
	return EncodingFromContentType(contentType)
}

// serializeForm flattens a map[string]string (or struct with `form` tags)
// into application/x-www-form-urlencoded bytes.
func serializeForm(value any) ([]byte, error) {
	values := url.Values{}
	switch v := value.(type) {
	case map[string]string:
		for k, val := range v {
			values.Set(k, val)
		}
	case url.Values:
		values = v
	default:
		rv := reflect.ValueOf(value)
		for rv.Kind() == reflect.Ptr {
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return nil, fmt.Errorf("codec: form encoding does not support %T", value)
		}
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			tag := f.Tag.Get("form")
			if tag == "" {
				tag = f.Name
			}
			if tag == "-" {
				continue
			}
			values.Set(tag, fmt.Sprintf("%v", rv.Field(i).Interface()))
		}
	}
	return []byte(values.Encode()), nil
}

func deserializeForm(data []byte, target any) error {
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return err
	}
	switch t := target.(type) {
	case *map[string]string:
		m := make(map[string]string, len(values))
		for k, vs := range values {
			if len(vs) > 0 {
				m[k] = vs[0]
			}
		}
		*t = m
		return nil
	case *url.Values:
		*t = values
		return nil
	default:
		return fmt.Errorf("codec: form decoding does not support target %T", target)
	}
}
