package model

// Player is a roster entry as exposed by the backing store.
type Player struct {
	ID    string
	Name  string
	Grade string
}

// IsPlaceholder reports whether id names a synthetic system player.
func IsPlaceholder(id string) bool {
	return id == UnknownPlayerID
}

// RatingState is the derived per-player rating snapshot. It is fully
// reproducible from the game history and never independently authored.
type RatingState struct {
	PlayerID     string
	Rating       float64
	GamesCounted int
}
