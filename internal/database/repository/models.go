package repository

import "time"

// Event represents one traced coordinator transition.
type Event struct {
	ID         string
	SessionID  string
	Generation string
	Ordinal    int64
	Kind       string
	Side       string
	Item       string
	Pair       string
	Phase      string
	Seq        int
	Buffered   int
	At         time.Time
}
