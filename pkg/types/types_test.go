package types_test

import (
	"errors"
	"testing"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/types"
)

func TestParseCompressionKind(t *testing.T) {
	tests := []struct {
		input   string
		want    types.CompressionKind
		wantErr bool
	}{
		{"lzfse", types.CompressionLZFSE, false},
		{"ZLIB", types.CompressionZlib, false},
		{" lzvn ", types.CompressionLZVN, false},
		{"gzip", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := types.ParseCompressionKind(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCompressionKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCompressionKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultCompression(t *testing.T) {
	if types.DefaultCompression != types.CompressionLZFSE {
		t.Errorf("expected default compression lzfse, got %s", types.DefaultCompression)
	}
}

func TestParseVerbosity(t *testing.T) {
	tests := []struct {
		input     string
		want      types.Verbosity
		wantLevel string
		wantErr   bool
	}{
		{"quiet", types.VerbosityQuiet, "warn", false},
		{"", types.VerbosityNormal, "info", false},
		{"Verbose", types.VerbosityVerbose, "debug", false},
		{"loud", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := types.ParseVerbosity(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVerbosity(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("ParseVerbosity(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if got.LogLevel() != tt.wantLevel {
				t.Errorf("LogLevel() = %q, want %q", got.LogLevel(), tt.wantLevel)
			}
		})
	}
}

func TestAggregateResult_Success(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		outcomes []types.WorkOutcome
		want     bool
	}{
		{
			name: "empty run succeeds",
			want: true,
		},
		{
			name: "all succeeded",
			outcomes: []types.WorkOutcome{
				types.Succeeded("/t/debug", 0),
				types.Succeeded("/t/release", 0),
			},
			want: true,
		},
		{
			name: "skipped only",
			outcomes: []types.WorkOutcome{
				types.Skipped("/t/debug", types.ReasonDirectoryMissing),
				types.Skipped("/t/release", types.ReasonDirectoryMissing),
			},
			want: true,
		},
		{
			name: "one failure among successes",
			outcomes: []types.WorkOutcome{
				types.Succeeded("/t/a", 0),
				types.Failed("/t/b", boom, 0),
				types.Skipped("/t/c", types.ReasonDirectoryMissing),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := types.AggregateResult{Outcomes: tt.outcomes}
			if got := r.Success(); got != tt.want {
				t.Errorf("Success() = %v, want %v", got, tt.want)
			}
			wantCode := 0
			if !tt.want {
				wantCode = 1
			}
			if got := r.ExitCode(); got != wantCode {
				t.Errorf("ExitCode() = %d, want %d", got, wantCode)
			}
		})
	}
}

func TestAggregateResult_Counts(t *testing.T) {
	r := types.AggregateResult{Outcomes: []types.WorkOutcome{
		types.Succeeded("/t/a", 0),
		types.Failed("/t/b", errors.New("compression failed"), 0),
		types.Skipped("/t/c", types.ReasonDirectoryMissing),
		types.Succeeded("/t/d", 0),
	}}

	if got := r.Count(types.OutcomeSucceeded); got != 2 {
		t.Errorf("expected 2 succeeded, got %d", got)
	}
	failures := r.Failures()
	if len(failures) != 1 || failures[0].Dir != "/t/b" {
		t.Fatalf("unexpected failures: %+v", failures)
	}
	if failures[0].Reason != "compression failed" {
		t.Errorf("expected failure reason to carry the error, got %q", failures[0].Reason)
	}
	if got, want := r.Summary(), "2 succeeded, 1 skipped, 1 failed"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestProfileSelection_IsDefault(t *testing.T) {
	if !(types.ProfileSelection{Targets: []string{"aarch64-apple-darwin"}}).IsDefault() {
		t.Error("selection without profiles should use default discovery")
	}
	if (types.ProfileSelection{Profiles: []string{"dev"}}).IsDefault() {
		t.Error("selection with profiles should not use default discovery")
	}
}
