package tasks

import (
	"time"

	"github.com/perchapp/perch/services"
	"github.com/perchapp/perch/utils"
)

// sessionPruner is the slice of the session store the sweeper needs.
type sessionPruner interface {
	DeleteLastUsedBefore(cutoff time.Time) (int64, error)
}

// NewSessionSweeper builds the recurring job that evicts sessions idle
// past ttl. Expired sessions are otherwise only rejected, never
// removed, on the request path; this job is what actually reclaims
// them.
func NewSessionSweeper(sessions sessionPruner, ttl, interval time.Duration, now services.Clock) *Recurring {
	return NewRecurring("session sweeper", interval, func() error {
		n, err := sessions.DeleteLastUsedBefore(now().Add(-ttl))
		if err != nil {
			return err
		}
		if n > 0 && utils.Sugar != nil {
			utils.Sugar.Infof("session sweeper: evicted %d stale sessions", n)
		}
		return nil
	})
}
