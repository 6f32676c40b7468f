package chrono

import "time"

var ist = time.FixedZone("IST", 5*60*60+30*60)

// IST returns the [*time.Location] the portal publishes results in.
func IST() *time.Location {
	return ist
}

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in IST.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

// NewStandardTime is the constructor of StandardTime.
func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return time.Now().In(ist)
}

// FixedTime is a TimeAPI whose clock only moves when told to.
type FixedTime struct {
	T time.Time
}

func (f *FixedTime) Now() time.Time {
	return f.T
}

// Advance moves the clock forward by d.
func (f *FixedTime) Advance(d time.Duration) {
	f.T = f.T.Add(d)
}
