package scores

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxResponseSize is the upper limit for the upstream response body.
const MaxResponseSize = 1 << 20

// Response errors.
var (
	ErrResponseTooLarge = errors.New("too big response")
	ErrInvalidResponse  = errors.New("invalid response")
	errTrailingData     = errors.New("unexpected data after JSON value")
)

// StatusError is returned when the upstream API replies with a non-2xx code.
type StatusError struct {
	Code int
	URL  string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

func readResponse(rc io.Reader, limit int) ([]byte, error) {
	buf := make([]byte, limit+1)
	n, err := io.ReadFull(rc, buf)
	if (errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)) && n <= limit {
		return buf[:n], nil
	}
	if err == nil || n > limit {
		return nil, ErrResponseTooLarge
	}
	return nil, err
}

// decodeJSON decodes a single JSON value keeping numbers as json.Number,
// the form schema validation expects.
func decodeJSON(data []byte) (any, error) {
	var v any

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return v, nil
}
