package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
)

// what we'll render out, one per package directory.
type PluginRecord struct {
	Name        string  `json:"name"`
	Id          string  `json:"id"`
	Description string  `json:"description"`
	Author      string  `json:"author"`
	Repo        string  `json:"repo"` // "owner/repo" or ""
	Dir         string  `json:"dir"`  // source directory name
	Label       string  `json:"label"`
	IconUrl     string  `json:"iconUrl"`   // "" if no icon
	ReadmeUrl   *string `json:"readmeUrl"` // null if neither probed branch has one
	CreatedAt   string  `json:"created_at"`
	LastUpdated string  `json:"last_updated"`
	Error       string  `json:"error"` // comma-joined warnings, "" if none
}

// merges per-item pool results into the final catalogue.
// nil slots (non-directory listing entries, or work abandoned after a
// rate-limit) are dropped. the rest are sorted by last-updated, newest first.
// lexicographic comparison is fine here: the timestamps are fixed-width,
// zero-padded ISO8601. records with no last-updated date sort after all
// records that have one, keeping their relative input order.
func aggregate(result_list []*PluginRecord) []PluginRecord {
	record_list := []PluginRecord{}
	for _, record := range result_list {
		if record == nil {
			continue
		}
		record_list = append(record_list, *record)
	}

	slices.SortStableFunc(record_list, func(a, b PluginRecord) int {
		if a.LastUpdated == b.LastUpdated {
			return 0
		}
		if a.LastUpdated == "" {
			return 1
		}
		if b.LastUpdated == "" {
			return -1
		}
		return strings.Compare(b.LastUpdated, a.LastUpdated)
	})

	return record_list
}

func write_catalogue(path string, record_list []PluginRecord) error {
	blob, err := json.MarshalIndent(record_list, "", "\t")
	if err != nil {
		return fmt.Errorf("failed to serialise catalogue: %w", err)
	}
	err = os.WriteFile(path, blob, 0644)
	if err != nil {
		return fmt.Errorf("failed to write catalogue: %w", err)
	}
	return nil
}
