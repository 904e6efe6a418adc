package model

// Event names a located instant of the swing motion.
type Event string

// Swing events in canonical order.
const (
	EventLoad    Event = "load"
	EventLaunch  Event = "launch"
	EventContact Event = "contact"
	EventFinish  Event = "finish"
)

// EventOrder lists events in canonical swing order.
func EventOrder() []Event {
	return []Event{EventLoad, EventLaunch, EventContact, EventFinish}
}

// CriticalEvents are the events the retake gate requires. Missing two or
// more of these makes the attempt unscorable.
func CriticalEvents() []Event {
	return []Event{EventLaunch, EventContact, EventFinish}
}

// SwingEvents is a partial mapping from event name to the frame index where
// it was located. Any subset of events may be absent.
type SwingEvents map[Event]int

// Frame returns the frame index for the named event if it was located.
func (s SwingEvents) Frame(e Event) (int, bool) {
	idx, ok := s[e]
	return idx, ok
}

// Ordered reports whether every pair of present events respects canonical
// swing order (load <= launch <= contact <= finish).
func (s SwingEvents) Ordered() bool {
	last := -1
	for _, e := range EventOrder() {
		idx, ok := s[e]
		if !ok {
			continue
		}
		if last >= 0 && idx < last {
			return false
		}
		last = idx
	}
	return true
}

// MissingCritical returns the critical events that were not located.
func (s SwingEvents) MissingCritical() []Event {
	var missing []Event
	for _, e := range CriticalEvents() {
		if _, ok := s[e]; !ok {
			missing = append(missing, e)
		}
	}
	return missing
}
