package domain

import "strings"

// MaxSpecialRequestsLength bounds the free-text note sent with a booking
const MaxSpecialRequestsLength = 1000

// Selection is the guest's in-progress booking choice. It is an immutable value:
// every change goes through Reduce, which returns a new Selection.
type Selection struct {
	PropertyID      string
	Range           DateRange
	Guests          int
	SpecialRequests string
}

// Action is a change applied to a Selection by Reduce
type Action interface {
	apply(Selection) Selection
}

// SelectProperty switches to another listing; dates and guests are cleared
// because they were chosen against the previous listing's calendar.
type SelectProperty struct{ PropertyID string }

// SelectDates sets the stay dates
type SelectDates struct{ Range DateRange }

// SetGuests sets the guest count
type SetGuests struct{ Guests int }

// SetSpecialRequests sets the free-text note, trimmed and truncated
type SetSpecialRequests struct{ Text string }

// Reset clears the selection
type Reset struct{}

func (a SelectProperty) apply(s Selection) Selection {
	if s.PropertyID == a.PropertyID {
		return s
	}
	return Selection{PropertyID: a.PropertyID}
}

func (a SelectDates) apply(s Selection) Selection {
	s.Range = a.Range
	return s
}

func (a SetGuests) apply(s Selection) Selection {
	s.Guests = a.Guests
	return s
}

func (a SetSpecialRequests) apply(s Selection) Selection {
	text := strings.TrimSpace(a.Text)
	if r := []rune(text); len(r) > MaxSpecialRequestsLength {
		text = string(r[:MaxSpecialRequestsLength])
	}
	s.SpecialRequests = text
	return s
}

func (Reset) apply(Selection) Selection {
	return Selection{}
}

// Reduce applies actions in order and returns the resulting Selection
func Reduce(s Selection, actions ...Action) Selection {
	for _, a := range actions {
		if a == nil {
			continue
		}
		s = a.apply(s)
	}
	return s
}

// Complete reports whether the selection has everything a booking needs.
// It does not validate dates or guests against the listing.
func (s Selection) Complete() bool {
	return s.PropertyID != "" && !s.Range.CheckIn.IsZero() && !s.Range.CheckOut.IsZero()
}
