// Package tasks hosts the periodic maintenance jobs. Each job is an
// explicit, stoppable schedule owned by the process lifecycle rather
// than a fire-and-forget timer.
package tasks

import (
	"time"

	"github.com/perchapp/perch/utils"
)

// Recurring runs fn on a fixed interval until stopped. A failed run is
// logged and the schedule carries on; there is no backoff since the
// next tick retries anyway.
type Recurring struct {
	name     string
	interval time.Duration
	fn       func() error
	stop     chan struct{}
	done     chan struct{}
}

func NewRecurring(name string, interval time.Duration, fn func() error) *Recurring {
	return &Recurring{
		name:     name,
		interval: interval,
		fn:       fn,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the schedule. The first run happens one interval
// after Start, not immediately, so boot is not slowed down.
func (r *Recurring) Start() {
	go r.loop()
}

func (r *Recurring) loop() {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.fn(); err != nil {
				if utils.Sugar != nil {
					utils.Sugar.Errorf("%s: %v", r.name, err)
				}
			}
		case <-r.stop:
			return
		}
	}
}

// Stop prevents further runs and waits for an in-flight run to finish.
// It never aborts a run mid-tick. Stop must be called at most once.
func (r *Recurring) Stop() {
	close(r.stop)
	<-r.done
}
