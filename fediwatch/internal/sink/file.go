package sink

import (
	"fmt"
	"os"
)

// File appends JSON lines to a file. Same format as Stdout.
type File struct {
	*Stdout
	f *os.File
}

// NewFile opens path for appending, creating it if needed.
func NewFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sink: open %s: %w", path, err)
	}
	return &File{Stdout: NewStdout(f), f: f}, nil
}

func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
