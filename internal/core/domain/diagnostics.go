package domain

import "time"

// ErrorRecord is a terminal failure of a call to a remote service.
type ErrorRecord struct {
	Time       time.Time
	Op         string
	Kind       string
	StatusCode int
	Attempts   int
	Message    string
}
