package storage

import (
	"log/slog"
	"sync"
)

// WriterRegistry manages one JSONLWriter per subdirectory and file name.
type WriterRegistry struct {
	baseDir    string
	maxSizeMB  int
	bufferSize int

	// writers maps subDir -> name -> writer
	writers map[string]map[string]*JSONLWriter
	mu      sync.RWMutex
}

func NewWriterRegistry(baseDir string, bufferSize int, maxSizeMB int) *WriterRegistry {
	return &WriterRegistry{
		baseDir:    baseDir,
		maxSizeMB:  maxSizeMB,
		bufferSize: bufferSize,
		writers:    make(map[string]map[string]*JSONLWriter),
	}
}

// GetWriter returns (or creates) the writer for subDir/name.
func (r *WriterRegistry) GetWriter(subDir, name string) *JSONLWriter {
	r.mu.RLock()
	if writer, ok := r.writers[subDir][name]; ok {
		r.mu.RUnlock()
		return writer
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if writer, ok := r.writers[subDir][name]; ok {
		return writer
	}
	if r.writers[subDir] == nil {
		r.writers[subDir] = make(map[string]*JSONLWriter)
	}
	writer := NewJSONLWriter(r.baseDir, subDir, name, r.bufferSize, r.maxSizeMB)
	r.writers[subDir][name] = writer

	slog.Info("created journal writer", "subdir", subDir, "name", name)
	return writer
}

// Len returns the number of open writers.
func (r *WriterRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, byName := range r.writers {
		n += len(byName)
	}
	return n
}

// Close closes all managed writers.
func (r *WriterRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for subDir, byName := range r.writers {
		for name, writer := range byName {
			if err := writer.Close(); err != nil {
				slog.Error("journal writer close failed", "subdir", subDir, "name", name, "error", err)
				lastErr = err
			}
		}
	}

	r.writers = make(map[string]map[string]*JSONLWriter)
	return lastErr
}
