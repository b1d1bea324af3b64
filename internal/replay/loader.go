package replay

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"driftpursuit/vehicles/internal/telemetry"
)

// ErrTruncatedFrame is returned when the frame stream ends inside an entry.
var ErrTruncatedFrame = errors.New("replay: truncated frame")

// Entry kinds yielded by Recording.Replay.
const (
	EntryFrame = "frame"
	EntryEvent = "event"
)

// TimelineEntry is one event or decoded frame in replay order.
type TimelineEntry struct {
	Tick        uint64
	SimulatedMs int64
	Kind        string
	Event       *EventRecord
	Frame       *telemetry.Frame
}

// Recording is a flight recording read back from disk.
type Recording struct {
	Dir      string
	Manifest Manifest
	Header   Header
	Events   []EventRecord
	Frames   []telemetry.Frame
}

// Load reads the bundle in dir.
func Load(dir string) (*Recording, error) {
	if dir == "" {
		return nil, fmt.Errorf("replay path must be provided")
	}
	rec := &Recording{Dir: dir}
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &rec.Manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	//1.- The header only exists once the writer closed cleanly.
	if header, err := ReadHeader(filepath.Join(dir, headerFile)); err == nil {
		rec.Header = header
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if rec.Events, err = readEvents(filepath.Join(dir, rec.Manifest.EventsPath)); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	blobs, err := readFrames(filepath.Join(dir, rec.Manifest.FramesPath))
	if err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	for _, blob := range blobs {
		frame, err := telemetry.Decode(blob.Payload)
		if err != nil {
			return nil, fmt.Errorf("decode frame at tick %d: %w", blob.Tick, err)
		}
		rec.Frames = append(rec.Frames, frame)
	}
	return rec, nil
}

func readEvents(path string) ([]EventRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var events []EventRecord
	scanner := bufio.NewScanner(snappy.NewReader(file))
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record EventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, err
		}
		events = append(events, record)
	}
	return events, scanner.Err()
}

func readFrames(path string) ([]FrameBlob, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	decoder, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()
	return ReadFrameBlobs(decoder)
}

// ReadFrameBlobs splits an uncompressed frame stream into its entries.
func ReadFrameBlobs(r io.Reader) ([]FrameBlob, error) {
	var blobs []FrameBlob
	reader := bufio.NewReader(r)
	header := make([]byte, frameHeaderSize)
	for {
		if _, err := io.ReadFull(reader, header); err != nil {
			if errors.Is(err, io.EOF) {
				return blobs, nil
			}
			return blobs, fmt.Errorf("%w: %v", ErrTruncatedFrame, err)
		}
		blob := FrameBlob{
			Tick:        binary.LittleEndian.Uint64(header[0:8]),
			SimulatedMs: int64(binary.LittleEndian.Uint64(header[8:16])),
			Payload:     make([]byte, binary.LittleEndian.Uint32(header[16:20])),
		}
		if _, err := io.ReadFull(reader, blob.Payload); err != nil {
			return blobs, fmt.Errorf("%w: tick %d: %v", ErrTruncatedFrame, blob.Tick, err)
		}
		blobs = append(blobs, blob)
	}
}

// Replay visits frames and events ordered by simulated time, then tick, with events before
// frames of the same tick.
func (r *Recording) Replay(apply func(TimelineEntry) error) error {
	if r == nil {
		return fmt.Errorf("recording not loaded")
	}
	if apply == nil {
		return fmt.Errorf("replay callback must be provided")
	}
	entries := make([]TimelineEntry, 0, len(r.Events)+len(r.Frames))
	for i := range r.Events {
		event := &r.Events[i]
		entries = append(entries, TimelineEntry{Tick: event.Tick, SimulatedMs: event.SimulatedMs, Kind: EntryEvent, Event: event})
	}
	for i := range r.Frames {
		frame := &r.Frames[i]
		entries = append(entries, TimelineEntry{Tick: frame.Tick, SimulatedMs: frame.SimulatedMs, Kind: EntryFrame, Frame: frame})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].SimulatedMs != entries[j].SimulatedMs {
			return entries[i].SimulatedMs < entries[j].SimulatedMs
		}
		if entries[i].Tick != entries[j].Tick {
			return entries[i].Tick < entries[j].Tick
		}
		return entries[i].Kind == EntryEvent && entries[j].Kind != EntryEvent
	})
	for _, entry := range entries {
		if err := apply(entry); err != nil {
			return err
		}
	}
	return nil
}
