package domain

import "math/rand/v2"

// MaxHistory is the number of finished tracks remembered for Retreat.
const MaxHistory = 10

// Queue holds what plays next for a guild: a FIFO of pending tracks,
// the current track, and a bounded history of finished tracks.
// Loop mode and volume live here so they survive across tracks.
type Queue struct {
	pending  []*Track
	history  []*Track // oldest first
	current  *Track
	loopMode LoopMode
	volume   Volume
}

// NewQueue creates a new empty Queue at the default volume.
func NewQueue() Queue {
	return Queue{
		pending:  make([]*Track, 0),
		history:  make([]*Track, 0, MaxHistory),
		loopMode: LoopModeNone,
		volume:   DefaultVolume,
	}
}

// Add appends tracks to the end of the pending list.
func (q *Queue) Add(tracks ...*Track) {
	q.pending = append(q.pending, tracks...)
}

// Advance moves the queue forward and returns the new current track,
// or nil when nothing is left to play.
//   - LoopModeTrack: the current track is returned unchanged
//   - LoopModeQueue: the outgoing track is re-appended to pending
//
// Outside track looping the outgoing track is recorded in history.
func (q *Queue) Advance() *Track {
	if q.loopMode == LoopModeTrack && q.current != nil {
		return q.current
	}

	if q.current != nil {
		if q.loopMode == LoopModeQueue {
			q.pending = append(q.pending, q.current)
		}
		q.pushHistory(q.current)
	}

	if len(q.pending) == 0 {
		q.current = nil
		return nil
	}

	q.current = q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	return q.current
}

// Skip advances as if track looping were off, so a looped track can be skipped.
// Queue looping still re-appends the outgoing track.
func (q *Queue) Skip() *Track {
	mode := q.loopMode
	if mode == LoopModeTrack {
		q.loopMode = LoopModeNone
		defer func() { q.loopMode = mode }()
	}
	return q.Advance()
}

// Retreat steps back to the most recently finished track and returns it.
// The current track, if any, goes back to the front of pending.
// Returns nil without changing anything when history is empty.
func (q *Queue) Retreat() *Track {
	if len(q.history) == 0 {
		return nil
	}

	if q.current != nil {
		q.pending = append([]*Track{q.current}, q.pending...)
	}

	last := len(q.history) - 1
	q.current = q.history[last]
	q.history[last] = nil
	q.history = q.history[:last]
	return q.current
}

// Requeue puts the current track back at the front of pending and unsets it,
// so the next Advance starts it again. No-op without a current track.
func (q *Queue) Requeue() {
	if q.current == nil {
		return
	}
	q.pending = append([]*Track{q.current}, q.pending...)
	q.current = nil
}

// Shuffle randomly permutes the pending list in place.
func (q *Queue) Shuffle() {
	rand.Shuffle(len(q.pending), func(i, j int) {
		q.pending[i], q.pending[j] = q.pending[j], q.pending[i]
	})
}

// Clear empties pending and history and unsets the current track.
// It does not touch any in-flight audio stream.
func (q *Queue) Clear() {
	q.pending = make([]*Track, 0)
	q.history = make([]*Track, 0, MaxHistory)
	q.current = nil
}

// Current returns the current track, or nil.
func (q *Queue) Current() *Track {
	return q.current
}

// Pending returns a copy of the pending tracks in play order.
func (q *Queue) Pending() []*Track {
	result := make([]*Track, len(q.pending))
	copy(result, q.pending)
	return result
}

// History returns a copy of the finished tracks, oldest first.
func (q *Queue) History() []*Track {
	result := make([]*Track, len(q.history))
	copy(result, q.history)
	return result
}

// Len returns the number of pending tracks.
func (q *Queue) Len() int {
	return len(q.pending)
}

// IsEmpty returns true if no tracks are pending.
func (q *Queue) IsEmpty() bool {
	return len(q.pending) == 0
}

// LoopMode returns the current loop mode.
func (q *Queue) LoopMode() LoopMode {
	return q.loopMode
}

// SetLoopMode sets the loop mode.
func (q *Queue) SetLoopMode(mode LoopMode) {
	q.loopMode = mode
}

// CycleLoopMode moves to the next loop mode and returns it.
func (q *Queue) CycleLoopMode() LoopMode {
	q.loopMode = q.loopMode.Next()
	return q.loopMode
}

// Volume returns the volume applied to new streams.
func (q *Queue) Volume() Volume {
	return q.volume
}

// SetVolume stores v clamped to the valid range and returns the stored value.
func (q *Queue) SetVolume(v Volume) Volume {
	q.volume = v.Clamp()
	return q.volume
}

func (q *Queue) pushHistory(track *Track) {
	if len(q.history) >= MaxHistory {
		copy(q.history, q.history[1:])
		q.history[len(q.history)-1] = nil
		q.history = q.history[:len(q.history)-1]
	}
	q.history = append(q.history, track)
}
