package numerator

import "time"

// DuplicateCheckPolicy decides what happens when the registry lookup fails.
type DuplicateCheckPolicy string

const (
	// FailOpen logs a warning and issues the candidate.
	FailOpen DuplicateCheckPolicy = "fail_open"
	// FailClosed aborts with DUPLICATE_CHECK_UNAVAILABLE.
	FailClosed DuplicateCheckPolicy = "fail_closed"
)

// DefaultMaxAttempts bounds the draw-and-check loop of Next.
const DefaultMaxAttempts = 100

// DefaultTimezone is the business time zone used for date prefixes.
const DefaultTimezone = "Asia/Bangkok"

// Config holds numbering configuration.
type Config struct {
	MaxAttempts int
	Policy      DuplicateCheckPolicy
	// Location is the time zone date prefixes are computed in.
	Location *time.Location
	Schemes  Schemes
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		Policy:      FailOpen,
		Location:    BusinessLocation(DefaultTimezone),
		Schemes:     DefaultSchemes(),
	}
}

// BusinessLocation loads name, falling back to a fixed UTC+7 zone when the
// host has no tzdata.
func BusinessLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Policy == "" {
		c.Policy = FailOpen
	}
	if c.Location == nil {
		c.Location = BusinessLocation(DefaultTimezone)
	}
	if len(c.Schemes) == 0 {
		c.Schemes = DefaultSchemes()
	}
	return c
}
