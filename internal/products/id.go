package products

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces candidate ids for new products.
type IDGenerator func() string

// UUIDGenerator returns random v4 UUIDs.
func UUIDGenerator() IDGenerator {
	return uuid.NewString
}

// TimestampGenerator returns the milliseconds since epoch of the clock as the id.
// Two products created within the same millisecond collide.
func TimestampGenerator(now func() time.Time) IDGenerator {
	if now == nil {
		now = time.Now
	}
	return func() string {
		return strconv.FormatInt(now().UnixMilli(), 10)
	}
}

// GeneratorFor maps a configured id scheme name to a generator.
func GeneratorFor(scheme string) (IDGenerator, bool) {
	switch scheme {
	case "", "uuid":
		return UUIDGenerator(), true
	case "timestamp":
		return TimestampGenerator(time.Now), true
	default:
		return nil, false
	}
}
