// Package ejson encodes and decodes the wire documents exchanged with the
// backend. The backend speaks MongoDB extended JSON, so plain encoding/json
// would silently mangle types such as ObjectId and $date; everything that
// crosses the transport boundary goes through this package instead.
package ejson

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// Document is a generic wire document.
type Document = bson.M

// Marshal encodes v as canonical-off, relaxed extended JSON.
func Marshal(v any) ([]byte, error) {
	b, err := bson.MarshalExtJSON(v, false, false)
	if err != nil {
		return nil, errors.Wrap(err, "[ejson.Marshal] encoding document")
	}
	return b, nil
}

// Unmarshal decodes extended JSON data into v.
func Unmarshal(data []byte, v any) error {
	if err := bson.UnmarshalExtJSON(data, false, v); err != nil {
		return errors.Wrap(err, "[ejson.Unmarshal] decoding document")
	}
	return nil
}
