// Package logger builds the process logger: console output plus an optional
// daily file sink with its own level.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Options struct {
	// Level of the console output
	Level string
	// File is the base path of the file sink, empty to disable it. A file
	// named logs/app.log is written as logs/app.2006-01-02.log.
	File      string
	FileLevel string
	Output    io.Writer
}

// Initialize creates a logger from opts
func Initialize(opts Options) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.DateTime})
	if opts.Output != nil {
		log.SetOutput(opts.Output)
	} else {
		log.SetOutput(os.Stderr)
	}
	level, err := parseLevel(opts.Level, logrus.InfoLevel)
	if err != nil {
		return nil, err
	}
	if opts.File == "" {
		log.SetLevel(level)
		return log, nil
	}

	fileLevel, err := parseLevel(opts.FileLevel, logrus.DebugLevel)
	if err != nil {
		return nil, err
	}
	sink := &dailyFile{base: opts.File, now: time.Now}
	if err := sink.open(); err != nil {
		return nil, err
	}
	// the logger level is the most verbose of both sinks, each hook filters its own
	console := log.Out
	log.SetOutput(io.Discard)
	log.SetLevel(max(level, fileLevel))
	log.AddHook(&writerHook{out: console, level: level, formatter: log.Formatter})
	log.AddHook(&writerHook{
		out:       sink,
		level:     fileLevel,
		formatter: &logrus.TextFormatter{DisableColors: true, FullTimestamp: true, TimestampFormat: time.DateTime},
	})
	return log, nil
}

func parseLevel(name string, fallback logrus.Level) (logrus.Level, error) {
	if strings.TrimSpace(name) == "" {
		return fallback, nil
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return fallback, fmt.Errorf("while parsing log level: %w", err)
	}
	return level, nil
}

type writerHook struct {
	mu        sync.Mutex
	out       io.Writer
	level     logrus.Level
	formatter logrus.Formatter
}

func (h *writerHook) Levels() []logrus.Level {
	return logrus.AllLevels[:h.level+1]
}

func (h *writerHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.out.Write(line)
	return err
}

// dailyFile appends to base.YYYY-MM-DD.ext and switches files when the day changes
type dailyFile struct {
	mu   sync.Mutex
	base string
	day  string
	f    *os.File
	now  func() time.Time
}

// FileName returns the file the sink writes to on day t
func FileName(base string, t time.Time) string {
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s.%s%s", strings.TrimSuffix(base, ext), t.Format(time.DateOnly), ext)
}

func (d *dailyFile) open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rotate()
}

func (d *dailyFile) rotate() error {
	day := d.now().Format(time.DateOnly)
	if d.f != nil && day == d.day {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(d.base), 0o755); err != nil {
		return fmt.Errorf("while creating log directory: %w", err)
	}
	f, err := os.OpenFile(FileName(d.base, d.now()), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("while opening log file: %w", err)
	}
	if d.f != nil {
		d.f.Close()
	}
	d.f = f
	d.day = day
	return nil
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rotate(); err != nil {
		return 0, err
	}
	return d.f.Write(p)
}
