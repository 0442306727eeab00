package model

import "time"

// Pokemon is the fully normalized record produced by the transform phase
// and persisted by the loader. ID and Name are both unique across a run.
type Pokemon struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Height         float64         `json:"height"`
	Weight         float64         `json:"weight"`
	BaseExperience int             `json:"base_experience"`
	SpriteURL      *string         `json:"sprite_url,omitempty"`
	ShinySpriteURL *string         `json:"shiny_sprite_url,omitempty"`
	Types          []string        `json:"types"`
	Abilities      []string        `json:"abilities"`
	Stats          map[string]int  `json:"stats"`
	Evolutions     []EvolutionEdge `json:"evolutions"`
	FlavorText     *string         `json:"flavor_text,omitempty"`
	IsLegendary    bool            `json:"is_legendary"`
	IsMythical     bool            `json:"is_mythical"`
	Color          *string         `json:"color,omitempty"`
}

// EvolutionEdge is one directed transition between two species.
// Trigger, TriggerItem and MinLevel are each independently optional.
type EvolutionEdge struct {
	FromSpecies string  `json:"from_species"`
	ToSpecies   string  `json:"to_species"`
	Trigger     *string `json:"trigger,omitempty"`
	TriggerItem *string `json:"trigger_item,omitempty"`
	MinLevel    *int    `json:"min_level,omitempty"`
}

// Sync run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// SyncRun is one row of the pipeline run log.
type SyncRun struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Requested  int        `json:"requested"`
	Fetched    int        `json:"fetched"`
	Loaded     int        `json:"loaded"`
	Error      string     `json:"error,omitempty"`
}
