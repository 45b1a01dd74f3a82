package services

import "time"

// Clock supplies the current time. Services take it as a dependency so
// expiry logic can be driven deterministically in tests; production
// wiring passes time.Now.
type Clock func() time.Time
