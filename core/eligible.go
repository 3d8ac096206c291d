package core

import (
	"sort"
)

// IsAvailable reports whether the message still has display budget
// and hasn't been dismissed or pressed.
func IsAvailable(m *Message) bool {
	return m.MaxDisplayCount() >= m.Metadata.DisplayCount &&
		!m.Metadata.Dismissed &&
		!m.Metadata.Pressed
}

// Rank sorts the messages in place by descending priority.  Messages
// with the same priority keep their relative order.
func Rank(ms []*Message) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Priority() > ms[j].Priority()
	})
}
