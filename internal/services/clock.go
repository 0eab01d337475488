package services

import "time"

// Clock abstracts the ambient current-time source so every temporal
// decision (past guard, sweep, confirmation and feedback gates, overdue)
// can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func NewSystemClock() Clock { return systemClock{} }
