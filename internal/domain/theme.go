package domain

import "strconv"

// DefaultThemes is the catalog a weekly theme is picked from.
var DefaultThemes = []string{
	"Ancient Kingdoms of Ethiopia",
	"Influential Leaders",
	"Historic Battles",
	"Freedom Fighters",
	"Cultural Heritage and Traditions",
	"Religious History and Landmarks",
	"Trade, Diplomacy, and Global Influence",
}

// ThemeState is the persisted state of the weekly themed series.
// FactsLog is keyed by week key, then by the decimal chat id.
type ThemeState struct {
	Subscribers    []int64                        `json:"subscribers"`
	CurrentWeekKey string                         `json:"current_week_key"`
	CurrentTheme   string                         `json:"current_theme"`
	FactsLog       map[string]map[string][]string `json:"facts_log"`
}

func NewThemeState() ThemeState {
	return ThemeState{
		Subscribers: []int64{},
		FactsLog:    map[string]map[string][]string{},
	}
}

func (s *ThemeState) IsSubscribed(chatID int64) bool {
	for _, id := range s.Subscribers {
		if id == chatID {
			return true
		}
	}
	return false
}

// Subscribe reports whether the state changed.
func (s *ThemeState) Subscribe(chatID int64) bool {
	if s.IsSubscribed(chatID) {
		return false
	}
	s.Subscribers = append(s.Subscribers, chatID)
	return true
}

// Unsubscribe reports whether the state changed.
func (s *ThemeState) Unsubscribe(chatID int64) bool {
	for i, id := range s.Subscribers {
		if id == chatID {
			s.Subscribers = append(s.Subscribers[:i], s.Subscribers[i+1:]...)
			return true
		}
	}
	return false
}

// SubscriberSet returns themed subscribers as a set.
func (s *ThemeState) SubscriberSet() SubscriberSet {
	return NewSubscriberSet(s.Subscribers...)
}

// EnsureWeek creates an empty log bucket for weekKey if absent.
func (s *ThemeState) EnsureWeek(weekKey string) {
	if s.FactsLog == nil {
		s.FactsLog = map[string]map[string][]string{}
	}
	if _, ok := s.FactsLog[weekKey]; !ok {
		s.FactsLog[weekKey] = map[string][]string{}
	}
}

func (s *ThemeState) AppendFact(chatID int64, weekKey, fact string) {
	s.EnsureWeek(weekKey)
	key := chatKey(chatID)
	s.FactsLog[weekKey][key] = append(s.FactsLog[weekKey][key], fact)
}

// Facts returns the facts logged for chatID in weekKey, in delivery order.
func (s *ThemeState) Facts(chatID int64, weekKey string) []string {
	week, ok := s.FactsLog[weekKey]
	if !ok {
		return nil
	}
	return week[chatKey(chatID)]
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
