package domain

import "time"

// BatchPlan is the work order for one harvest batch: the historical window,
// the rotated player subset, and the per-player fetch cap. Plans are derived
// deterministically and discarded once the batch completes.
type BatchPlan struct {
	Batch        int
	WindowStart  time.Time
	WindowEnd    time.Time
	Players      []Player
	PerPlayerCap int
}
