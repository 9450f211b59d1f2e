// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// PluginStats holds the values rendered into the README stats block.
// It is the core domain entity of this application.
type PluginStats struct {
	UpdatedAt time.Time `json:"updated_at"`
	Installs  int       `json:"installs"`
	Forks     int       `json:"forks"`
}

// StatsSnapshot is one recorded observation of the plugin stats,
// appended to the history file on every updater run.
type StatsSnapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Installs  int       `json:"installs"`
	Forks     int       `json:"forks"`
}

// RepoMetrics holds the GitHub-side metrics of the plugin repository.
type RepoMetrics struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Forks       int    `json:"forks"`
	Stars       int    `json:"stars"`
	Watchers    int    `json:"watchers"`
}

// StatsSummary aggregates the recorded snapshot history.
// The delta fields describe the change in install count between
// consecutive snapshots; they are zero with fewer than two snapshots.
type StatsSummary struct {
	Snapshots          int     `json:"snapshots"`
	From               string  `json:"from"`
	To                 string  `json:"to"`
	MinInstalls        float64 `json:"min_installs"`
	MaxInstalls        float64 `json:"max_installs"`
	MeanInstalls       float64 `json:"mean_installs"`
	MedianInstalls     float64 `json:"median_installs"`
	MinForks           float64 `json:"min_forks"`
	MaxForks           float64 `json:"max_forks"`
	MeanForks          float64 `json:"mean_forks"`
	MedianForks        float64 `json:"median_forks"`
	MinInstallDelta    float64 `json:"min_install_delta"`
	MaxInstallDelta    float64 `json:"max_install_delta"`
	MeanInstallDelta   float64 `json:"mean_install_delta"`
	MedianInstallDelta float64 `json:"median_install_delta"`
}
