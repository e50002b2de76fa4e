package domain

import "time"

// IDFunc generates opaque identifiers for flows, sessions and messages.
// Injecting it keeps graph construction pure; tests supply deterministic
// sequences.
type IDFunc func() string

// ClockFunc supplies the current time. Injected for the same reason.
type ClockFunc func() time.Time
