package util

import (
	"github.com/google/uuid"
)

// UUIDGenerator creates unique identifiers, such as the ones attached
// to worker registrations. It can be replaced in unit tests.
type UUIDGenerator func() (uuid.UUID, error)

var _ UUIDGenerator = uuid.NewRandom
