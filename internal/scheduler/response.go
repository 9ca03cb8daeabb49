package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidResponse is returned when a review response cannot be parsed.
var ErrInvalidResponse = errors.New("scheduler: invalid response")

// Response is the user's answer to a review.
type Response int

const (
	Easy Response = iota + 1
	Good
	Hard
	Reset
)

var responseNames = [...]string{Easy: "easy", Good: "good", Hard: "hard", Reset: "reset"}

// String returns the lowercase name of the response.
func (r Response) String() string {
	if r.IsValid() {
		return responseNames[r]
	}
	return fmt.Sprintf("Response(%d)", int(r))
}

// IsValid reports whether r is one of the defined responses.
func (r Response) IsValid() bool {
	return r >= Easy && r <= Reset
}

// ParseResponse parses a response name, ignoring case.
func ParseResponse(s string) (Response, error) {
	for r := Easy; r <= Reset; r++ {
		if strings.EqualFold(s, responseNames[r]) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidResponse, s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Response) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResponse, int(r))
	}
	return []byte(responseNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Response) UnmarshalText(text []byte) error {
	v, err := ParseResponse(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
