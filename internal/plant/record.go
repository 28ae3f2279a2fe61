package plant

import "time"

// Repeat units understood by NextNotificationAt. Any other value is treated
// as daily.
const (
	RepeatWeek = "week"
	RepeatDay  = "day"
)

// Frequency describes how often a plant needs watering: Times occurrences per
// RepeatEvery unit.
type Frequency struct {
	Times       int    `json:"times"`
	RepeatEvery string `json:"repeat_every"`
}

// Record is a plant together with its watering reminder configuration.
type Record struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	About        string    `json:"about"`
	WaterTips    string    `json:"water_tips"`
	Photo        string    `json:"photo"`
	Environments []string  `json:"environments"`
	Frequency    Frequency `json:"frequency"`

	// Hour is the "HH:mm" rendering of NextNotificationAt. It is rebuilt on
	// every load and ignored when read back from storage.
	Hour string `json:"hour"`

	// NextNotificationAt is the next reminder time. On Save its time of day is
	// the reminder time picked by the user.
	NextNotificationAt time.Time `json:"dateTimeNotification"`
}

// HasEnvironment reports whether the plant is tagged with the environment key.
func (r *Record) HasEnvironment(key string) bool {
	for _, e := range r.Environments {
		if e == key {
			return true
		}
	}
	return false
}

// storedEntry is the value kept per plant id in the persisted mapping.
type storedEntry struct {
	Data Record `json:"data"`
}

// storedPlants is the persisted mapping: plant id -> entry.
type storedPlants map[string]storedEntry
