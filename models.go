package main

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Event is the canonical event record shared by every backend. Latitude and
// longitude are pointers so an event without coordinates serializes as null
// instead of 0,0.
type Event struct {
	ID          string   `json:"id,omitempty" bson:"-"`
	Name        string   `json:"name" bson:"name"`
	Category    string   `json:"category" bson:"category"`
	District    string   `json:"district" bson:"district"`
	Upazila     string   `json:"upazila" bson:"upazila"`
	Village     string   `json:"village" bson:"village"`
	Address     string   `json:"address" bson:"address"`
	Description string   `json:"description" bson:"description"`
	ImageURL    string   `json:"image_url" bson:"image_url"`
	LinkURL     string   `json:"link_url" bson:"link_url"`
	EventDate   string   `json:"event_date" bson:"event_date"`
	EventDay    string   `json:"event_day" bson:"event_day"`
	StartTime   string   `json:"start_time" bson:"start_time"`
	Contact     string   `json:"contact" bson:"contact"`
	Latitude    *float64 `json:"latitude" bson:"latitude"`
	Longitude   *float64 `json:"longitude" bson:"longitude"`
	CreatedAt   string   `json:"created_at" bson:"created_at"`
}

var eventCategories = []string{"iftar", "waz-mahfil", "eid-jamaat", "milad", "sports", "cultural", "other"}

func validCategory(c string) bool {
	for _, k := range eventCategories {
		if c == k {
			return true
		}
	}
	return false
}

// coerceCoord turns a form coordinate string into a float pointer. Anything
// unparsable, NaN or infinite becomes nil rather than a validation error.
func coerceCoord(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// EventFilter narrows list reads. Category and district match exactly;
// upazila and village are case-insensitive substring matches. Zero value
// means "everything".
type EventFilter struct {
	Category string
	District string
	Upazila  string
	Village  string
}

func (f EventFilter) IsZero() bool {
	return f.Category == "" && f.District == "" && f.Upazila == "" && f.Village == ""
}

// Matches applies the same semantics the primary store pushdown uses, for
// when filtering has to happen on a fallback snapshot.
func (f EventFilter) Matches(e Event) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.District != "" && e.District != f.District {
		return false
	}
	if f.Upazila != "" && !containsFold(e.Upazila, f.Upazila) {
		return false
	}
	if f.Village != "" && !containsFold(e.Village, f.Village) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sortNewestFirst orders events by created_at descending. Records without a
// parsable timestamp sink to the end, preserving their relative order.
func sortNewestFirst(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		ti, iok := parseCreatedAt(events[i].CreatedAt)
		tj, jok := parseCreatedAt(events[j].CreatedAt)
		if iok && jok {
			return ti.After(tj)
		}
		return iok && !jok
	})
}

func parseCreatedAt(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
