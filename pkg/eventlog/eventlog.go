// Package eventlog provides a generic, cursor-based event log with undo,
// redo and named checkpoints.
//
// The cursor always points one past the last applied slot. Undoing leaves a
// redo tail behind the cursor; the next Append or Checkpoint destroys it, so
// branching history is not supported. Checkpoints occupy a slot of their own
// (a sentinel) so direct undo targeting works without a side table of
// offsets, and they are pruned whenever the slot they refer to is truncated
// away.
//
// A Log is owned by exactly one session and is not safe for concurrent use.
package eventlog

// slot is the tagged union stored in the log: either a domain event or a
// checkpoint sentinel. Sentinels never surface through Undo/Redo/Recent.
type slot[E any] struct {
	event      E
	checkpoint string
	sentinel   bool
}

// Log is a linear event log, generic over the domain event type.
type Log[E any] struct {
	slots       []slot[E]
	cursor      int
	checkpoints map[string]int
}

// New creates an empty log.
func New[E any]() *Log[E] {
	return &Log[E]{checkpoints: make(map[string]int)}
}

// truncate discards the redo tail and prunes checkpoints whose recorded
// position lies beyond the cursor.
func (l *Log[E]) truncate() {
	if l.cursor >= len(l.slots) {
		return
	}
	l.slots = l.slots[:l.cursor]
	for name, pos := range l.checkpoints {
		if pos > l.cursor {
			delete(l.checkpoints, name)
		}
	}
}

// Append adds event at the cursor position, truncating any redo tail.
func (l *Log[E]) Append(event E) {
	l.truncate()
	l.slots = append(l.slots, slot[E]{event: event})
	l.cursor++
}

// Checkpoint records the current cursor position under name and appends a
// checkpoint sentinel. Like Append, it destroys any redo tail.
// Re-checkpointing an existing name overwrites its position.
func (l *Log[E]) Checkpoint(name string) {
	l.checkpoints[name] = l.cursor
	l.truncate()
	l.slots = append(l.slots, slot[E]{checkpoint: name, sentinel: true})
	l.cursor++
}

// Undo moves the cursor back by up to count applied events, skipping
// checkpoint sentinels (they do not count but the cursor still walks over
// them). It returns the events to reverse, most-recent-first, and never
// fails; an empty slice means there was nothing to undo.
func (l *Log[E]) Undo(count int) []E {
	var reversed []E
	remaining := count
	for remaining > 0 && l.cursor > 0 {
		l.cursor--
		s := l.slots[l.cursor]
		if s.sentinel {
			continue
		}
		reversed = append(reversed, s.event)
		remaining--
	}
	return reversed
}

// UndoTo walks the cursor back to the named checkpoint's recorded position:
// the cursor value at the moment Checkpoint was called, just before its
// sentinel was appended. The sentinel ends up in the redo tail. It returns
// the skipped events most-recent-first, and false if the checkpoint is
// unknown, which keeps "unknown" apart from "empty".
func (l *Log[E]) UndoTo(name string) ([]E, bool) {
	target, ok := l.checkpoints[name]
	if !ok {
		return nil, false
	}
	var reversed []E
	for l.cursor > target {
		l.cursor--
		s := l.slots[l.cursor]
		if !s.sentinel {
			reversed = append(reversed, s.event)
		}
	}
	return reversed, true
}

// Redo moves the cursor forward over up to count events from the redo tail,
// skipping sentinels, and returns the events to replay in chronological
// order. It never fails.
func (l *Log[E]) Redo(count int) []E {
	var replayed []E
	remaining := count
	for remaining > 0 && l.cursor < len(l.slots) {
		s := l.slots[l.cursor]
		l.cursor++
		if s.sentinel {
			continue
		}
		replayed = append(replayed, s.event)
		remaining--
	}
	return replayed
}

// Recent returns up to count events immediately preceding the cursor,
// oldest-first, without moving the cursor. Sentinels are skipped and do not
// count.
func (l *Log[E]) Recent(count int) []E {
	var picked []E
	for idx := l.cursor - 1; idx >= 0 && len(picked) < count; idx-- {
		s := l.slots[idx]
		if !s.sentinel {
			picked = append(picked, s.event)
		}
	}
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked
}

// Position returns the cursor: the count of applied slots, events and
// sentinels alike. This is the externally visible event number.
func (l *Log[E]) Position() int {
	return l.cursor
}

// Len is an alias for Position.
func (l *Log[E]) Len() int {
	return l.cursor
}
