// CLAUDE:SUMMARY Records observed API responses as JSON lines (optionally zstd/gzip compressed by extension) and reads them back for replay.
package fediwatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Response is one recorded API response.
type Response struct {
	URL  string `json:"url"`
	Body string `json:"body"`
}

// Recorder appends responses to a recording. Safe for concurrent use.
type Recorder struct {
	mu  sync.Mutex
	enc *json.Encoder
	zw  io.WriteCloser // compressor, nil when plain
	f   *os.File
	n   int
}

// OpenRecorder creates (or truncates) a recording at path. A ".zst"
// extension selects zstd, ".gz" gzip; anything else is plain JSON lines.
func OpenRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("fediwatch: create recording: %w", err)
	}
	r := &Recorder{f: f}

	var w io.Writer = f
	switch filepath.Ext(path) {
	case ".zst":
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("fediwatch: zstd writer: %w", err)
		}
		r.zw, w = zw, zw
	case ".gz":
		zw := gzip.NewWriter(f)
		r.zw, w = zw, zw
	}

	r.enc = json.NewEncoder(w)
	r.enc.SetEscapeHTML(false)
	return r, nil
}

// Record appends one response.
func (r *Recorder) Record(url string, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return errors.New("fediwatch: recorder closed")
	}
	if err := r.enc.Encode(Response{URL: url, Body: string(body)}); err != nil {
		return fmt.Errorf("fediwatch: record: %w", err)
	}
	r.n++
	return nil
}

// Len returns the number of responses recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Close flushes the compressor and closes the file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enc == nil {
		return nil
	}
	r.enc = nil

	var firstErr error
	if r.zw != nil {
		firstErr = r.zw.Close()
	}
	if err := r.f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ReadRecording loads every response of a recording written by Recorder.
func ReadRecording(path string) ([]Response, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fediwatch: open recording: %w", err)
	}
	defer f.Close()

	var rd io.Reader = f
	switch filepath.Ext(path) {
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("fediwatch: zstd reader: %w", err)
		}
		defer zr.Close()
		rd = zr
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("fediwatch: gzip reader: %w", err)
		}
		defer zr.Close()
		rd = zr
	}
	return DecodeResponses(rd)
}

// DecodeResponses reads a stream of JSON response objects.
func DecodeResponses(rd io.Reader) ([]Response, error) {
	dec := json.NewDecoder(rd)
	var out []Response
	for {
		var resp Response
		err := dec.Decode(&resp)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("fediwatch: decode response %d: %w", len(out)+1, err)
		}
		out = append(out, resp)
	}
}
