package domain

import (
	"sort"
	"time"
)

// DataIndex is the aggregate index of all available daily data files,
// served to the frontend as index.json.
type DataIndex struct {
	AvailableDates []string            `json:"available_dates"`
	Categories     []string            `json:"categories"`
	ByDate         map[string][]string `json:"by_date"`
	LastUpdated    *time.Time          `json:"last_updated"`
}

// NewDataIndex creates an empty index.
func NewDataIndex() *DataIndex {
	return &DataIndex{
		AvailableDates: []string{},
		Categories:     []string{},
		ByDate:         map[string][]string{},
	}
}

// Add records a (date, category) pair, keeping all listings sorted and
// duplicate-free.
func (i *DataIndex) Add(date, category string) {
	if i.ByDate == nil {
		i.ByDate = map[string][]string{}
	}
	i.AvailableDates = insertSorted(i.AvailableDates, date)
	i.Categories = insertSorted(i.Categories, category)
	i.ByDate[date] = insertSorted(i.ByDate[date], category)
}

// Touch bumps the last-updated timestamp.
func (i *DataIndex) Touch() {
	now := time.Now().UTC()
	i.LastUpdated = &now
}

// insertSorted adds value to a sorted slice unless already present.
func insertSorted(values []string, value string) []string {
	pos := sort.SearchStrings(values, value)
	if pos < len(values) && values[pos] == value {
		return values
	}
	values = append(values, "")
	copy(values[pos+1:], values[pos:])
	values[pos] = value
	return values
}
