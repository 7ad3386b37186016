package domain

import "time"

// Game is a core entity describing a single chess game pulled from upstream.
// All fields are fixed at fetch time except Enrichment, which the eligibility
// filter annotates once the evaluation data has been classified.
type Game struct {
	ID         string
	Handle     string
	White      string
	Black      string
	Speed      string
	PlayedAt   time.Time
	Plies      int
	Eval       *Evaluation
	Enrichment EnrichmentMode
}

// Evaluation is the upstream engine verdict attached to a game. Score is in
// centipawns for the final analyzed position, Depth counts the analyzed plies
// behind it.
type Evaluation struct {
	Score int
	Depth int
}

// EnrichmentMode records how evaluation data for an accepted game was obtained.
type EnrichmentMode string

const (
	EnrichmentEngine  EnrichmentMode = "engine"
	EnrichmentNeutral EnrichmentMode = "neutral"
)
