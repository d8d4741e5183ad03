package extprefs

import (
	"encoding/json"
	"fmt"
)

// RecentReport is one item of the recentReports preference, which stores the reports
// a user submitted most recently as a JSON list.
type RecentReport struct {
	ID   string `json:"id"`
	Site string `json:"site,omitempty"`
	Time int64  `json:"time,omitempty"`
}

// DecodeRecentReports parses the recentReports preference value.
// An empty string decodes as an empty list.
func DecodeRecentReports(s string) ([]RecentReport, error) {
	reports := []RecentReport{}
	if s == "" {
		return reports, nil
	}
	if err := json.Unmarshal([]byte(s), &reports); err != nil {
		return nil, fmt.Errorf("%w: recentReports: %v", ErrInvalidValue, err)
	}
	if reports == nil {
		reports = []RecentReport{}
	}
	return reports, nil
}

// EncodeRecentReports serializes reports into the recentReports preference format.
func EncodeRecentReports(reports []RecentReport) (string, error) {
	if reports == nil {
		reports = []RecentReport{}
	}
	data, err := json.Marshal(reports)
	if err != nil {
		return "", fmt.Errorf("%w: recentReports: %v", ErrSerialization, err)
	}
	return string(data), nil
}
