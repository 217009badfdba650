// Package report persists a machine readable summary of a run
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/types"
)

// Report is the persisted result of one run
type Report struct {
	RunID           string                 `json:"runId" yaml:"runId"`
	StartedAt       time.Time              `json:"startedAt" yaml:"startedAt"`
	Duration        time.Duration          `json:"duration" yaml:"duration"`
	TargetDirectory string                 `json:"targetDirectory" yaml:"targetDirectory"`
	Compression     types.CompressionKind  `json:"compression" yaml:"compression"`
	Selection       types.ProfileSelection `json:"selection" yaml:"selection"`
	Success         bool                   `json:"success" yaml:"success"`
	ExitCode        int                    `json:"exitCode" yaml:"exitCode"`
	Summary         string                 `json:"summary" yaml:"summary"`
	Outcomes        []types.WorkOutcome    `json:"outcomes" yaml:"outcomes"`
}

// New builds a report from an aggregate result
func New(runID string, started time.Time, meta types.ProjectMetadata, kind types.CompressionKind,
	selection types.ProfileSelection, result types.AggregateResult) *Report {
	return &Report{
		RunID:           runID,
		StartedAt:       started,
		Duration:        time.Since(started),
		TargetDirectory: meta.TargetDirectory,
		Compression:     kind,
		Selection:       selection,
		Success:         result.Success(),
		ExitCode:        result.ExitCode(),
		Summary:         result.Summary(),
		Outcomes:        result.Outcomes,
	}
}

// isJSON reports whether path should be written as JSON rather than YAML
func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Write saves r to path atomically. A .json extension selects JSON, anything
// else YAML.
func Write(path string, r *Report) error {
	var data []byte
	var err error
	if isJSON(path) {
		data, err = json.MarshalIndent(r, "", "  ")
	} else {
		data, err = yaml.Marshal(r)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename report file: %w", err)
	}

	return nil
}

// Read loads a report written by Write
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var r Report
	if isJSON(path) {
		err = json.Unmarshal(data, &r)
	} else {
		err = yaml.Unmarshal(data, &r)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}
