package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// DecodeJSON unmarshals data keeping numbers as json.Number so prices and
// amounts are written back exactly as the client sent them.
func DecodeJSON(data []byte, output any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(output); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}
