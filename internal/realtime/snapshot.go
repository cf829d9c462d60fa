package realtime

import (
	"sort"
	"time"
)

// Snapshot maps row keys of one table to their last-modified time.
type Snapshot map[string]time.Time

// Diff compares two snapshots of table and returns the row changes, ordered
// by key. A nil prev is treated as the first observation and yields nothing.
func Diff(table string, prev, curr Snapshot) []Event {
	if prev == nil {
		return nil
	}

	var events []Event
	for key, at := range curr {
		old, ok := prev[key]
		switch {
		case !ok:
			events = append(events, Event{Table: table, Action: ActionInsert, Key: key})
		case !at.Equal(old):
			events = append(events, Event{Table: table, Action: ActionUpdate, Key: key})
		}
	}
	for key := range prev {
		if _, ok := curr[key]; !ok {
			events = append(events, Event{Table: table, Action: ActionDelete, Key: key})
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Key != events[j].Key {
			return events[i].Key < events[j].Key
		}
		return events[i].Action < events[j].Action
	})
	return events
}
