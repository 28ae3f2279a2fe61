// Package catalog reads the remote plant catalog: paginated plants and the
// environment tags used to filter them.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"plantmanager/internal/plant"
)

// AllEnvironments is the pseudo environment key that matches every plant.
const AllEnvironments = "all"

// ID is a catalog identifier. The API serves ids as numbers or strings;
// both decode to the same string form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("catalog id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Frequency mirrors plant.Frequency but tolerates times sent as a string.
type Frequency struct {
	Times       flexInt `json:"times"`
	RepeatEvery string  `json:"repeat_every"`
}

type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", data, err)
	}
	*n = flexInt(v)
	return nil
}

// Plant is a catalog entry as served by GET /plants.
type Plant struct {
	ID           ID        `json:"id"`
	Name         string    `json:"name"`
	About        string    `json:"about"`
	WaterTips    string    `json:"water_tips"`
	Photo        string    `json:"photo"`
	Environments []string  `json:"environments"`
	Frequency    Frequency `json:"frequency"`
}

// Record converts the catalog entry into a reminder record without a
// schedule.
func (p Plant) Record() plant.Record {
	return plant.Record{
		ID:           string(p.ID),
		Name:         p.Name,
		About:        p.About,
		WaterTips:    p.WaterTips,
		Photo:        p.Photo,
		Environments: append([]string(nil), p.Environments...),
		Frequency: plant.Frequency{
			Times:       int(p.Frequency.Times),
			RepeatEvery: p.Frequency.RepeatEvery,
		},
	}
}

// Environment is an environment tag, e.g. {"living_room", "Sala"}.
type Environment struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// WithAllEnvironment prepends the "all" pseudo environment.
func WithAllEnvironment(envs []Environment) []Environment {
	out := make([]Environment, 0, len(envs)+1)
	out = append(out, Environment{Key: AllEnvironments, Title: "All"})
	return append(out, envs...)
}

// FilterByEnvironment returns the plants tagged with key. An empty key or
// AllEnvironments returns plants unchanged.
func FilterByEnvironment(plants []Plant, key string) []Plant {
	if key == "" || key == AllEnvironments {
		return plants
	}
	var out []Plant
	for _, p := range plants {
		for _, env := range p.Environments {
			if env == key {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
