package leave

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ApplicationID is a ULID; string order equals creation order.
type ApplicationID string

var (
	appIDOnce sync.Once
	appIDGen  *applicationIDs
)

// applicationIDs hands out monotonic ULIDs safely across goroutines.
type applicationIDs struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func (g *applicationIDs) at(t time.Time) ApplicationID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ApplicationID(ulid.MustNew(ulid.Timestamp(t), g.entropy).String())
}

// NewApplicationID returns a time-ordered id stamped with t.
func NewApplicationID(t time.Time) ApplicationID {
	appIDOnce.Do(func() {
		appIDGen = &applicationIDs{entropy: ulid.Monotonic(rand.Reader, 0)}
	})
	return appIDGen.at(t.UTC())
}

// ParseApplicationID validates the canonical ULID form.
func ParseApplicationID(s string) (ApplicationID, error) {
	if _, err := ulid.ParseStrict(s); err != nil {
		return "", &ValidationError{Field: "application_id", Message: "not a valid id"}
	}
	return ApplicationID(s), nil
}

// newEntityID returns a random UUID for clients, employees and leave types.
func newEntityID() string {
	return uuid.NewString()
}
