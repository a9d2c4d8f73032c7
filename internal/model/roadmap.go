package model

import (
	"strings"
	"time"
)

// RoadmapStatus is the progress state of a roadmap item.
type RoadmapStatus string

const (
	RoadmapPlanned    RoadmapStatus = "planned"
	RoadmapInProgress RoadmapStatus = "in_progress"
	RoadmapCompleted  RoadmapStatus = "completed"
)

// Valid reports whether s is a known roadmap status.
func (s RoadmapStatus) Valid() bool {
	switch s {
	case RoadmapPlanned, RoadmapInProgress, RoadmapCompleted:
		return true
	}
	return false
}

// Phase groups roadmap items into delivery stages.
type Phase string

const (
	PhaseMVP     Phase = "mvp"
	PhasePhase2  Phase = "phase_2"
	PhaseBacklog Phase = "backlog"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseMVP, PhasePhase2, PhaseBacklog:
		return true
	}
	return false
}

// PhaseForIndex returns the default phase for the item at index i of a
// generation batch: the first item is the MVP, the second phase 2, and
// everything after lands in the backlog.
func PhaseForIndex(i int) Phase {
	switch i {
	case 0:
		return PhaseMVP
	case 1:
		return PhasePhase2
	default:
		return PhaseBacklog
	}
}

// RoadmapPalette is the fixed set of colors a roadmap item may carry.
var RoadmapPalette = []string{
	"#3B82F6",
	"#10B981",
	"#F59E0B",
	"#EF4444",
	"#8B5CF6",
	"#EC4899",
	"#06B6D4",
	"#84CC16",
}

// PaletteColor returns the palette entry matching c (case-insensitive)
// and whether it was found.
func PaletteColor(c string) (string, bool) {
	for _, p := range RoadmapPalette {
		if strings.EqualFold(p, strings.TrimSpace(c)) {
			return p, true
		}
	}
	return "", false
}

// ColorForIndex returns the default palette color for position i.
func ColorForIndex(i int) string {
	if i < 0 {
		i = -i
	}
	return RoadmapPalette[i%len(RoadmapPalette)]
}

// RoadmapItem is a single milestone or phase entry on a project roadmap.
type RoadmapItem struct {
	ID          string        `json:"id,omitempty" db:"id" yaml:"id,omitempty"`
	ProjectID   string        `json:"project_id,omitempty" db:"project_id" yaml:"project_id,omitempty"`
	Title       string        `json:"title" db:"title" yaml:"title"`
	Description string        `json:"description" db:"description" yaml:"description"`
	Status      RoadmapStatus `json:"status" db:"status" yaml:"status"`
	Phase       Phase         `json:"phase" db:"phase" yaml:"phase"`
	Milestone   bool          `json:"milestone" db:"milestone" yaml:"milestone"`
	Color       string        `json:"color" db:"color" yaml:"color"`
	Position    int           `json:"position" db:"position" yaml:"position"`
	CreatedAt   time.Time     `json:"created_at,omitzero" db:"created_at" yaml:"-"`
	UpdatedAt   time.Time     `json:"updated_at,omitzero" db:"updated_at" yaml:"-"`
}
