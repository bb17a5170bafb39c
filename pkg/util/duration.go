package util

import (
	"encoding/json"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Duration is a time.Duration that can be unmarshaled from strings in
// the format accepted by time.ParseDuration() (e.g., "1m30s"). It is
// used by configuration structures.
type Duration time.Duration

// UnmarshalJSON parses a JSON string containing a duration.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return status.Errorf(codes.InvalidArgument, "Duration must be a string: %s", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "Invalid duration %#v: %s", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalJSON converts the duration to its string representation.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// AsDuration returns the value as a time.Duration, using a default
// value if the duration is not set.
func (d *Duration) AsDuration(defaultValue time.Duration) time.Duration {
	if d == nil || *d <= 0 {
		return defaultValue
	}
	return time.Duration(*d)
}
