package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// rotatingWriter is an io.WriteCloser that rolls the log file over once it
// grows past maxSize. Backups are pruned synchronously: robota is a
// short-lived process and a background sweep would usually be cut off.
type rotatingWriter struct {
	filename   string
	maxSize    int64
	maxAge     time.Duration
	maxBackups int

	mu          sync.Mutex
	file        *os.File
	currentSize int64
	now         func() time.Time
}

func newRotatingWriter(filename string, cfg *RotationConfig) (*rotatingWriter, error) {
	w := &rotatingWriter{
		filename:   filename,
		maxSize:    10 * 1024 * 1024,
		maxAge:     14 * 24 * time.Hour,
		maxBackups: 3,
		now:        time.Now,
	}

	if cfg != nil {
		if cfg.MaxSize != "" {
			size, err := parseSize(cfg.MaxSize)
			if err != nil {
				return nil, fmt.Errorf("invalid max_size: %w", err)
			}
			w.maxSize = size
		}
		if cfg.MaxAge != "" {
			age, err := parseDuration(cfg.MaxAge)
			if err != nil {
				return nil, fmt.Errorf("invalid max_age: %w", err)
			}
			w.maxAge = age
		}
		if cfg.MaxBackups > 0 {
			w.maxBackups = cfg.MaxBackups
		}
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := w.openFile(); err != nil {
		return nil, err
	}
	w.pruneBackups()

	return w, nil
}

// Write implements io.Writer.
func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		if err := w.openFile(); err != nil {
			return 0, err
		}
	}

	if w.currentSize > 0 && w.currentSize+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.currentSize += int64(n)
	return n, err
}

func (w *rotatingWriter) openFile() error {
	file, err := os.OpenFile(w.filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	w.file = file
	w.currentSize = info.Size()
	return nil
}

func (w *rotatingWriter) rotate() error {
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}

	if err := os.Rename(w.filename, w.backupName()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}

	if err := w.openFile(); err != nil {
		return err
	}

	w.pruneBackups()
	return nil
}

// backupName returns robota.20260102-150405.log for robota.log.
func (w *rotatingWriter) backupName() string {
	ext := filepath.Ext(w.filename)
	base := strings.TrimSuffix(w.filename, ext)
	name := fmt.Sprintf("%s.%s%s", base, w.now().Format("20060102-150405"), ext)
	// two rotations within the same second must not clobber each other
	for i := 1; fileExists(name); i++ {
		name = fmt.Sprintf("%s.%s-%d%s", base, w.now().Format("20060102-150405"), i, ext)
	}
	return name
}

func (w *rotatingWriter) pruneBackups() {
	ext := filepath.Ext(w.filename)
	prefix := strings.TrimSuffix(filepath.Base(w.filename), ext)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(w.filename), prefix+".*"+ext))
	if err != nil {
		return
	}

	type backup struct {
		path    string
		modTime time.Time
	}
	var backups []backup

	now := w.now()
	for _, match := range matches {
		if match == w.filename {
			continue
		}
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > w.maxAge {
			_ = os.Remove(match)
			continue
		}
		backups = append(backups, backup{path: match, modTime: info.ModTime()})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.Before(backups[j].modTime)
	})

	for len(backups) > w.maxBackups {
		_ = os.Remove(backups[0].path)
		backups = backups[1:]
	}
}

// Close closes the underlying file.
func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// parseSize parses a size string like "10MB" into bytes.
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("size must be positive: %d", n)
	}
	return n * multiplier, nil
}

// parseDuration parses "7d", "2w" or any time.ParseDuration string.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	if strings.HasSuffix(s, "w") {
		weeks, err := strconv.Atoi(strings.TrimSuffix(s, "w"))
		if err != nil {
			return 0, err
		}
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}
