// Package logger provides progress logging with per-directory prefixes
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Logger interface for abstracted logging
type Logger interface {
	Info(message string, fields ...Field)
	Error(message string, fields ...Field)
	Warn(message string, fields ...Field)
	Debug(message string, fields ...Field)
	Success(message string, fields ...Field)
	WithDir(dir string) Logger
	WithFields(fields ...Field) Logger
}

// Field represents a structured logging field
type Field struct {
	Key   string
	Value interface{}
}

// WithField creates a new field
func WithField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// dirKey is the entry key rendered as the line prefix
const dirKey = "dir"

// successKey marks info entries that should render as SUCCESS
const successKey = "_success"

// DirLogger implements Logger on top of a shared logrus.Logger.
// logrus serializes writes, so child loggers used from many goroutines
// never interleave within a line.
type DirLogger struct {
	logger *logrus.Logger
	dir    string
	fields []Field
}

// CustomFormatter formats log lines with colored levels
type CustomFormatter struct {
	TimestampFormat string
	DisableColors   bool
}

// Format implements logrus.Formatter
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format(f.TimestampFormat)

	var levelColor *color.Color
	var levelText string

	switch entry.Level {
	case logrus.ErrorLevel:
		levelColor = color.New(color.FgRed, color.Bold)
		levelText = "ERROR"
	case logrus.WarnLevel:
		levelColor = color.New(color.FgYellow, color.Bold)
		levelText = "WARN"
	case logrus.DebugLevel, logrus.TraceLevel:
		levelColor = color.New(color.FgWhite, color.Faint)
		levelText = "DEBUG"
	default:
		levelColor = color.New(color.FgCyan)
		levelText = "INFO"
	}

	data := make(logrus.Fields, len(entry.Data))
	for k, v := range entry.Data {
		data[k] = v
	}
	if _, ok := data[successKey]; ok {
		levelColor = color.New(color.FgGreen)
		levelText = "OK"
		delete(data, successKey)
	}

	dirPrefix := ""
	if dir, ok := data[dirKey]; ok {
		if f.DisableColors {
			dirPrefix = fmt.Sprintf("[%v] ", dir)
		} else {
			dirPrefix = fmt.Sprintf("[%s] ", color.New(color.FgBlue).Sprint(dir))
		}
		delete(data, dirKey)
	}

	var b strings.Builder
	if f.DisableColors {
		fmt.Fprintf(&b, "[%s] %s: %s%s", timestamp, levelText, dirPrefix, entry.Message)
	} else {
		fmt.Fprintf(&b, "[%s] %s: %s%s", timestamp, levelColor.Sprint(levelText), dirPrefix, entry.Message)
	}

	if len(data) > 0 {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
		}
		fields := " {" + strings.Join(parts, ", ") + "}"
		if f.DisableColors {
			b.WriteString(fields)
		} else {
			b.WriteString(color.New(color.FgWhite, color.Faint).Sprint(fields))
		}
	}

	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// CreateLogger creates a logger writing to stderr, and to logFile when set.
// A log file that cannot be opened is reported on stderr.
func CreateLogger(logFile string, logLevel string) Logger {
	return attachLogFile(os.Stderr, logFile, logLevel, color.NoColor)
}

// CreateLoggerWithOutput creates a logger with custom output (for testing)
func CreateLoggerWithOutput(logFile string, logLevel string, output io.Writer) Logger {
	return attachLogFile(output, logFile, logLevel, true)
}

// CreateLoggerWithFile creates a logger writing to output and appending to
// logFile. The caller closes the returned file when the run ends.
func CreateLoggerWithFile(logFile string, logLevel string, output io.Writer) (Logger, io.Closer, error) {
	file, err := openLogFile(logFile)
	if err != nil {
		return nil, nil, err
	}
	return newDirLogger(io.MultiWriter(output, file), logLevel, true), file, nil
}

func openLogFile(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

func attachLogFile(output io.Writer, logFile, logLevel string, disableColors bool) Logger {
	if logFile == "" {
		return newDirLogger(output, logLevel, disableColors)
	}
	file, err := openLogFile(logFile)
	if err != nil {
		log := newDirLogger(output, logLevel, disableColors)
		log.Warn("Logging to the console only", WithField("error", err))
		return log
	}
	return newDirLogger(io.MultiWriter(output, file), logLevel, true)
}

func newDirLogger(out io.Writer, logLevel string, disableColors bool) *DirLogger {
	log := logrus.New()

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&CustomFormatter{
		TimestampFormat: "15:04:05",
		DisableColors:   disableColors,
	})
	log.SetOutput(out)

	return &DirLogger{logger: log}
}

// Nop returns a logger that discards everything
func Nop() Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &DirLogger{logger: log}
}

// WithDir creates a new logger that prefixes lines with dir
func (l *DirLogger) WithDir(dir string) Logger {
	return &DirLogger{
		logger: l.logger,
		dir:    dir,
		fields: l.fields,
	}
}

// WithFields creates a new logger that adds fields to every entry
func (l *DirLogger) WithFields(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &DirLogger{
		logger: l.logger,
		dir:    l.dir,
		fields: merged,
	}
}

// convertFields converts Field slices to logrus.Fields
func (l *DirLogger) convertFields(fields []Field) logrus.Fields {
	result := make(logrus.Fields, len(l.fields)+len(fields)+1)
	for _, f := range l.fields {
		result[f.Key] = f.Value
	}
	if l.dir != "" {
		result[dirKey] = l.dir
	}
	for _, f := range fields {
		result[f.Key] = f.Value
	}
	return result
}

// Info logs an info message
func (l *DirLogger) Info(message string, fields ...Field) {
	l.logger.WithFields(l.convertFields(fields)).Info(message)
}

// Error logs an error message
func (l *DirLogger) Error(message string, fields ...Field) {
	l.logger.WithFields(l.convertFields(fields)).Error(message)
}

// Warn logs a warning message
func (l *DirLogger) Warn(message string, fields ...Field) {
	l.logger.WithFields(l.convertFields(fields)).Warn(message)
}

// Debug logs a debug message
func (l *DirLogger) Debug(message string, fields ...Field) {
	l.logger.WithFields(l.convertFields(fields)).Debug(message)
}

// Success logs at info level with success formatting
func (l *DirLogger) Success(message string, fields ...Field) {
	data := l.convertFields(fields)
	data[successKey] = true
	l.logger.WithFields(data).Info(message)
}

// ConsoleLogger prints plain summary lines for the CLI
type ConsoleLogger struct {
	out    io.Writer
	errOut io.Writer
}

// NewConsoleLogger creates a console logger writing to stdout and stderr
func NewConsoleLogger() *ConsoleLogger {
	return NewConsoleLoggerWithOutput(os.Stdout, os.Stderr)
}

// NewConsoleLoggerWithOutput creates a console logger with custom writers
func NewConsoleLoggerWithOutput(out, errOut io.Writer) *ConsoleLogger {
	return &ConsoleLogger{out: out, errOut: errOut}
}

// Info prints info message
func (c *ConsoleLogger) Info(message string) {
	fmt.Fprintf(c.out, "%s %s\n", color.CyanString("[apfs-compress]"), message)
}

// Error prints error message
func (c *ConsoleLogger) Error(message string) {
	fmt.Fprintf(c.errOut, "%s %s\n", color.RedString("[apfs-compress]"), message)
}

// Warn prints warning message
func (c *ConsoleLogger) Warn(message string) {
	fmt.Fprintf(c.out, "%s %s\n", color.YellowString("[apfs-compress]"), message)
}

// Success prints success message
func (c *ConsoleLogger) Success(message string) {
	fmt.Fprintf(c.out, "%s %s\n", color.GreenString("[apfs-compress]"), message)
}
