// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// FileStatus is the outcome of one file in a recorded run.
type FileStatus string

const (
	FileConverted FileStatus = "converted"
	FileFailed    FileStatus = "failed"
)

// RunRecord describes one directory conversion as stored in the history
// database.
type RunRecord struct {
	// ID is a random UUID assigned when the run is recorded.
	ID string `json:"id" yaml:"id"`

	Mode Mode `json:"mode" yaml:"mode"`

	// Dir is the walked root as given on the command line.
	Dir string `json:"dir" yaml:"dir"`

	// OutputDir is empty when outputs were written beside their inputs.
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`

	Recursive bool `json:"recursive" yaml:"recursive"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	SuccessCount int `json:"success_count" yaml:"success_count"`
	FailCount    int `json:"fail_count" yaml:"fail_count"`

	// Files is populated by detail lookups and exports, and left nil by
	// listings.
	Files []FileRecord `json:"files,omitempty" yaml:"files,omitempty"`
}

// Duration returns how long the run took.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// FileRecord is one candidate file of a recorded run.
type FileRecord struct {
	Input  string     `json:"input" yaml:"input"`
	Output string     `json:"output,omitempty" yaml:"output,omitempty"`
	Status FileStatus `json:"status" yaml:"status"`
	Error  string     `json:"error,omitempty" yaml:"error,omitempty"`
}
