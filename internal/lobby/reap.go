// internal/lobby/reap.go
package lobby

// Reap evicts worlds that have no players and have been idle for longer
// than WorldIdleTTL. It returns the number of worlds removed.
func (l *Lobby) Reap() int {
	now := l.now()
	evicted := 0
	for name, w := range l.worlds {
		if w.Len() > 0 || now.Sub(w.LastActive()) < l.cfg.WorldIdleTTL {
			continue
		}
		delete(l.worlds, name)
		evicted++
		l.log.LogEvent("info", "world_evicted", "", name)
		l.events.WorldEvicted(name)
	}
	if evicted > 0 {
		l.log.Debugf("%d worlds left after reaping", len(l.worlds))
	}
	return evicted
}
