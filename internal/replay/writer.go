// Package replay writes and reads flight recordings: a manifest, a snappy-compressed JSON
// lines event log and a zstd-compressed stream of telemetry frames.
package replay

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

const (
	// FrameIntervalMs is the simulated time between frame flushes.
	FrameIntervalMs = 200

	manifestFile = "manifest.json"
	headerFile   = "header.json"
	eventsFile   = "events.jsonl.sz"
	framesFile   = "frames.bin.zst"

	// frameHeaderSize is tick, simulated milliseconds and payload length.
	frameHeaderSize = 8 + 8 + 4
)

// ErrWriterClosed is returned when appending to a nil or closed writer.
var ErrWriterClosed = errors.New("replay: writer not initialised")

var runIDCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// EventRecord is one line of the event log.
type EventRecord struct {
	Tick        uint64  `json:"tick"`
	SimulatedMs int64   `json:"simulated_ms"`
	Type        string  `json:"type"`
	Vehicle     string  `json:"vehicle,omitempty"`
	Part        string  `json:"part,omitempty"`
	Value       float64 `json:"value,omitempty"`
}

// FrameBlob is one length-prefixed entry of the frame stream.
type FrameBlob struct {
	Tick        uint64
	SimulatedMs int64
	Payload     []byte
}

// Manifest describes the bundle layout so tooling can locate artefacts.
type Manifest struct {
	Version         int    `json:"version"`
	CreatedAt       string `json:"created_at"`
	FrameIntervalMs int    `json:"frame_interval_ms"`
	EventsPath      string `json:"events_path"`
	FramesPath      string `json:"frames_path"`
}

// Writer streams a flight recording to disk.
type Writer struct {
	mu          sync.Mutex
	dir         string
	eventFile   *os.File
	eventStream *snappy.Writer
	frameFile   *os.File
	frameStream *zstd.Encoder
	pending     []FrameBlob
	lastFlushMs int64
	flushed     bool
	header      Header
	closed      bool
}

// NewWriter creates <root>/<runID>-<timestamp>/ and opens the compressed sinks. clock only
// names the folder and stamps the manifest.
func NewWriter(root, runID string, clock func() time.Time) (*Writer, Manifest, error) {
	if root == "" {
		return nil, Manifest{}, fmt.Errorf("replay root must be provided")
	}
	if clock == nil {
		clock = time.Now
	}
	cleaned := runIDCleaner.ReplaceAllString(runID, "")
	if cleaned == "" {
		cleaned = "run"
	}
	created := clock().UTC()
	path := filepath.Join(root, fmt.Sprintf("%s-%s", cleaned, created.Format("20060102T150405Z")))
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, Manifest{}, err
	}

	eventFile, err := os.Create(filepath.Join(path, eventsFile))
	if err != nil {
		return nil, Manifest{}, err
	}
	eventStream := snappy.NewBufferedWriter(eventFile)

	frameFile, err := os.Create(filepath.Join(path, framesFile))
	if err != nil {
		eventFile.Close()
		return nil, Manifest{}, err
	}
	frameStream, err := zstd.NewWriter(frameFile)
	if err != nil {
		eventStream.Close()
		eventFile.Close()
		frameFile.Close()
		return nil, Manifest{}, err
	}

	manifest := Manifest{
		Version:         1,
		CreatedAt:       created.Format(time.RFC3339Nano),
		FrameIntervalMs: FrameIntervalMs,
		EventsPath:      eventsFile,
		FramesPath:      framesFile,
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err == nil {
		err = os.WriteFile(filepath.Join(path, manifestFile), data, 0o644)
	}
	if err != nil {
		frameStream.Close()
		frameFile.Close()
		eventStream.Close()
		eventFile.Close()
		return nil, Manifest{}, err
	}

	writer := &Writer{
		dir:         path,
		eventFile:   eventFile,
		eventStream: eventStream,
		frameFile:   frameFile,
		frameStream: frameStream,
		header:      Header{SchemaVersion: HeaderSchemaVersion, RunID: runID, FilePointer: manifestFile},
	}
	return writer, manifest, nil
}

// Directory returns the bundle directory.
func (w *Writer) Directory() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// SetRunMetadata records what the run flew; it is written to header.json on Close.
func (w *Writer) SetRunMetadata(aeroMode string, vehicles []string, params RunParameters) {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.header.AeroMode = aeroMode
	w.header.Vehicles = append([]string(nil), vehicles...)
	w.header.Parameters = params.Clone()
	w.mu.Unlock()
}

// AppendEvent writes one JSON line to the event log and flushes it.
func (w *Writer) AppendEvent(record EventRecord) error {
	if w == nil {
		return ErrWriterClosed
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	//1.- One record per line so readers can stream the log.
	if _, err := w.eventStream.Write(append(line, '\n')); err != nil {
		return err
	}
	return w.eventStream.Flush()
}

// AppendFrame buffers an encoded frame and writes the batch once FrameIntervalMs of
// simulated time has passed since the previous write.
func (w *Writer) AppendFrame(tick uint64, simulatedMs int64, payload []byte) error {
	if w == nil {
		return ErrWriterClosed
	}
	clone := append([]byte(nil), payload...)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	w.pending = append(w.pending, FrameBlob{Tick: tick, SimulatedMs: simulatedMs, Payload: clone})
	//1.- The first frame anchors the cadence.
	if !w.flushed {
		w.flushed = true
		w.lastFlushMs = simulatedMs
		return nil
	}
	if simulatedMs-w.lastFlushMs >= FrameIntervalMs {
		if err := w.flushLocked(); err != nil {
			return err
		}
		w.lastFlushMs = simulatedMs
	}
	return nil
}

// Pending reports how many frames wait for the next flush.
func (w *Writer) Pending() int {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Flush writes pending frames regardless of cadence.
func (w *Writer) Flush() error {
	if w == nil {
		return ErrWriterClosed
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	return w.flushLocked()
}

// Close writes the header and any pending frames, then releases the files. The first
// failure is returned after every step has been attempted.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	keep(WriteHeader(filepath.Join(w.dir, headerFile), w.header))
	keep(w.flushLocked())
	keep(w.eventStream.Close())
	keep(w.eventFile.Close())
	keep(w.frameStream.Close())
	keep(w.frameFile.Close())
	return firstErr
}

// flushLocked writes buffered frames; callers hold the mutex.
func (w *Writer) flushLocked() error {
	for _, frame := range w.pending {
		header := make([]byte, frameHeaderSize)
		binary.LittleEndian.PutUint64(header[0:8], frame.Tick)
		binary.LittleEndian.PutUint64(header[8:16], uint64(frame.SimulatedMs))
		binary.LittleEndian.PutUint32(header[16:20], uint32(len(frame.Payload)))
		if _, err := w.frameStream.Write(header); err != nil {
			return err
		}
		if _, err := w.frameStream.Write(frame.Payload); err != nil {
			return err
		}
	}
	w.pending = w.pending[:0]
	return nil
}
