package domain

// Player is a single pool entry. Identity is the handle; pools never contain
// two entries with the same handle.
type Player struct {
	Handle   string
	Title    string
	Rating   int
	Category string
	Source   PlayerSource
}

// PlayerSource tells which provider produced a pool entry.
type PlayerSource string

const (
	PlayerSourceLive     PlayerSource = "live"
	PlayerSourceFallback PlayerSource = "fallback"
)
