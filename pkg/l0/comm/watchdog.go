package comm

// Watchdog tracks link liveness from cycle outcomes.
// The link is alive once a cycle validates and stays alive until more
// than Limit consecutive cycles fail.
type Watchdog struct {
	// Limit is the number of consecutive failed cycles tolerated.
	Limit int
	// ResetCursors resets both session cursors when the link is lost,
	// expecting the device to restart with fresh cursors as well.
	ResetCursors bool

	misses int
	alive  bool
}

// Observe records a cycle outcome. It returns true exactly when this
// outcome makes the link expire.
func (w *Watchdog) Observe(ok bool) bool {
	if ok {
		w.misses, w.alive = 0, true
		return false
	}
	w.misses++
	if w.alive && w.misses > w.Limit {
		w.alive = false
		return true
	}
	return false
}

// Alive tells whether the link is considered up.
func (w *Watchdog) Alive() bool {
	return w.alive
}

// Misses returns the number of consecutive failed cycles.
func (w *Watchdog) Misses() int {
	return w.misses
}
