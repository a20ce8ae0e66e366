package scheduler

import (
	"sync"
	"time"
)

// All window checks happen in this civil zone no matter where the process
// runs. Stored timestamps stay UTC.
const windowZoneName = "America/New_York"

var (
	windowZoneOnce sync.Once
	windowZone     *time.Location
)

func windowLocation() *time.Location {
	windowZoneOnce.Do(func() {
		loc, err := time.LoadLocation(windowZoneName)
		if err != nil {
			loc = time.FixedZone("EST", -5*3600)
		}
		windowZone = loc
	})
	return windowZone
}

// Admits reports whether a tick at the given moment may fetch. Paused configs
// never admit. The weekday set and the [StartHour, EndHour) range are both
// evaluated in the fixed civil zone.
func (c Config) Admits(now time.Time) bool {
	if c.IsPaused {
		return false
	}
	local := now.In(windowLocation())

	// time.Weekday counts Sunday=0; config days count Monday=0.
	day := (int(local.Weekday()) + 6) % 7
	if !containsDay(c.DaysOfWeek, day) {
		return false
	}

	hour := local.Hour()
	return hour >= c.StartHour && hour < c.EndHour
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
