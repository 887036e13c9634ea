// Package codec defines the serialization external interface consumed by
// the request builder and response decoder, plus the concrete
// JSON/XML/form-urlencoded/text implementations this module ships so it
// is usable without a caller-supplied codec.
package codec

import (
	"fmt"
	"mime"
	"strings"

	resterrors "github.com/deploymenttheory/go-restruntime/restruntime/errors"
)

// Encoding enumerates the wire encodings a Codec may be asked to handle.
type Encoding int

const (
	JSON Encoding = iota
	XML
	FormURLEncoded
	Text
)

func (e Encoding) String() string {
	switch e {
	case JSON:
		return "JSON"
	case XML:
		return "XML"
	case FormURLEncoded:
		return "FormURLEncoded"
	case Text:
		return "Text"
	default:
		return "Unknown"
	}
}

// Codec is the consumed external interface: serialize/deserialize a value
// against a chosen encoding, and pick an encoding from response headers.
type Codec interface {
	Serialize(value any, encoding Encoding) ([]byte, error)
	Deserialize(data []byte, target any, encoding Encoding) error
	EncodingFromHeaders(contentType string) (Encoding, error)
}

// EncodingFromContentType inspects a raw Content-Type header value (which
// may carry parameters, e.g. "application/json; charset=utf-8") and
// classifies it into one of the enumerated encodings, ignoring any
// parameter suffix.
func EncodingFromContentType(contentType string) (Encoding, error) {
	if contentType == "" {
		return JSON, nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	mediaType = strings.ToLower(mediaType)
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return JSON, nil
	case mediaType == "application/xml" || mediaType == "text/xml" || strings.HasSuffix(mediaType, "+xml"):
		return XML, nil
	case mediaType == "application/x-www-form-urlencoded":
		return FormURLEncoded, nil
	case strings.HasPrefix(mediaType, "text/"):
		return Text, nil
	default:
		return 0, &resterrors.UnsupportedEncoding{Encoding: contentType}
	}
}

// ContentType returns the canonical Content-Type string for an encoding,
// used by the request builder when inferring headers.
func ContentType(e Encoding) string {
	switch e {
	case JSON:
		return "application/json"
	case XML:
		return "application/xml"
	case FormURLEncoded:
		return "application/x-www-form-urlencoded"
	case Text:
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

func unsupported(e Encoding) error {
	return fmt.Errorf("codec: %w", &resterrors.UnsupportedEncoding{Encoding: e.String()})
}
