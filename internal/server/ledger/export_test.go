package ledger

// HeldKeys reports how many usernames are held or awaited in l's lock table.
func HeldKeys(l *Ledger) int {
	return l.locks.Len()
}
