package domain

import "sort"

// SubscriberSet is the set of chats receiving the daily fact.
type SubscriberSet map[int64]struct{}

func NewSubscriberSet(ids ...int64) SubscriberSet {
	s := make(SubscriberSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s SubscriberSet) Has(chatID int64) bool {
	_, ok := s[chatID]
	return ok
}

// Add reports whether chatID was newly inserted.
func (s SubscriberSet) Add(chatID int64) bool {
	if s.Has(chatID) {
		return false
	}
	s[chatID] = struct{}{}
	return true
}

// Remove reports whether chatID was present.
func (s SubscriberSet) Remove(chatID int64) bool {
	if !s.Has(chatID) {
		return false
	}
	delete(s, chatID)
	return true
}

// Sorted returns the ids in ascending order.
func (s SubscriberSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
