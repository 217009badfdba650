package logger_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	pcontext "github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/context"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/logger"
)

func TestCreateLogger(t *testing.T) {
	log := logger.CreateLogger("", "info")
	if log == nil {
		t.Fatal("expected logger to be created")
	}
}

func TestLogger_WithDir(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("", "info", &buf)

	log.WithDir("/work/target/debug").Info("compressing")

	output := buf.String()
	if !strings.Contains(output, "[/work/target/debug] compressing") {
		t.Errorf("expected directory prefix in log output, got %q", output)
	}
}

func TestLogger_Success(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("", "info", &buf)

	log.Success("compressed")

	output := buf.String()
	if !strings.Contains(output, "OK: compressed") {
		t.Errorf("expected success line, got %q", output)
	}
}

func TestLogger_FieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("", "info", &buf)

	log.Info("done",
		logger.WithField("zeta", 1),
		logger.WithField("alpha", "a"),
	)

	output := buf.String()
	if !strings.Contains(output, "{alpha=a, zeta=1}") {
		t.Errorf("expected sorted fields, got %q", output)
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"warn", false, false, true},
		{"error", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.CreateLoggerWithOutput("", tt.level, &buf)

			log.Debug("debug-line")
			log.Info("info-line")
			log.Warn("warn-line")
			log.Error("error-line")

			output := buf.String()
			if got := strings.Contains(output, "debug-line"); got != tt.wantDebug {
				t.Errorf("debug present = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(output, "info-line"); got != tt.wantInfo {
				t.Errorf("info present = %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(output, "warn-line"); got != tt.wantWarn {
				t.Errorf("warn present = %v, want %v", got, tt.wantWarn)
			}
			if !strings.Contains(output, "error-line") {
				t.Error("error level log should always appear")
			}
		})
	}
}

func TestLogger_ConcurrentLinesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("", "info", &buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dirLog := log.WithDir(fmt.Sprintf("/t/dir-%02d", i))
			for j := 0; j < 10; j++ {
				dirLog.Info("line")
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 200 {
		t.Fatalf("expected 200 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, "] line") || strings.Count(line, "INFO") != 1 {
			t.Fatalf("corrupted line: %q", line)
		}
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	base := logger.CreateLoggerWithOutput("", "info", &buf)

	ctx := pcontext.WithOperation(pcontext.WithRunID(context.Background(), "run_test"), "compress")
	logger.WithContext(ctx, base).Info("started")

	output := buf.String()
	if !strings.Contains(output, "run_id=run_test") {
		t.Errorf("expected run_id field, got %q", output)
	}
	if !strings.Contains(output, "operation=compress") {
		t.Errorf("expected operation field, got %q", output)
	}
}

func TestConsoleLogger(t *testing.T) {
	var out, errOut bytes.Buffer
	c := logger.NewConsoleLoggerWithOutput(&out, &errOut)

	c.Success("all good")
	c.Error("went wrong")

	if !strings.Contains(out.String(), "all good") {
		t.Errorf("expected success on stdout, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "went wrong") {
		t.Errorf("expected error on stderr, got %q", errOut.String())
	}
}

func TestCreateLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	var buf bytes.Buffer

	log, closer, err := logger.CreateLoggerWithFile(path, "info", &buf)
	if err != nil {
		t.Fatalf("CreateLoggerWithFile() error = %v", err)
	}
	log.Info("compressing")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "compressing") || !strings.Contains(buf.String(), "compressing") {
		t.Errorf("expected the line in both sinks, file %q console %q", data, buf.String())
	}
}

func TestCreateLoggerWithFile_OpenError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "run.log")

	_, _, err := logger.CreateLoggerWithFile(path, "info", &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "failed to open log file") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestCreateLoggerWithOutput_ReportsUnopenableFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "missing", "run.log")

	log := logger.CreateLoggerWithOutput(path, "info", &buf)
	log.Info("still logging")

	output := buf.String()
	if !strings.Contains(output, "failed to open log file") || !strings.Contains(output, "still logging") {
		t.Errorf("expected a warning and console output, got %q", output)
	}
}
