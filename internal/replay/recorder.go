package replay

import (
	"sync"

	"driftpursuit/vehicles/internal/logging"
	"driftpursuit/vehicles/internal/telemetry"
	"driftpursuit/vehicles/internal/vehicle"
)

// Stats summarises what a recorder has written.
type Stats struct {
	Frames       int64
	Events       int64
	FrameBytes   int64
	FailedWrites int64
	LastTick     uint64
}

// Recorder feeds vehicle events and per-tick telemetry into a Writer. It implements
// vehicle.EventSink so vehicles can publish into it directly.
type Recorder struct {
	mu          sync.Mutex
	writer      *Writer
	log         *logging.Logger
	tick        uint64
	simulatedMs int64
	stats       Stats
	buf         []byte
}

// NewRecorder wraps writer. A nil logger falls back to the global one.
func NewRecorder(writer *Writer, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.L()
	}
	return &Recorder{writer: writer, log: logger}
}

// Writer returns the underlying writer.
func (r *Recorder) Writer() *Writer { return r.writer }

// SetClock stamps subsequent events with tick and simulated time.
func (r *Recorder) SetClock(tick uint64, simulatedMs int64) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.tick = tick
	r.simulatedMs = simulatedMs
	r.mu.Unlock()
}

// PublishVehicleEvent implements vehicle.EventSink. Write failures are logged and counted
// because the vehicle cannot act on them.
func (r *Recorder) PublishVehicleEvent(event vehicle.Event) {
	if r == nil {
		return
	}
	r.mu.Lock()
	record := EventRecord{
		Tick:        r.tick,
		SimulatedMs: r.simulatedMs,
		Type:        string(event.Kind),
		Vehicle:     event.Vehicle,
		Part:        string(event.Part),
		Value:       event.Value,
	}
	r.mu.Unlock()
	err := r.writer.AppendEvent(record)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.stats.FailedWrites++
		r.log.Warn("flight recorder dropped event", logging.String("type", record.Type), logging.Error(err))
		return
	}
	r.stats.Events++
}

// RecordFrame encodes and buffers one telemetry frame.
func (r *Recorder) RecordFrame(frame telemetry.Frame) error {
	if r == nil {
		return ErrWriterClosed
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	//1.- Reuse one buffer; the writer copies the payload.
	r.buf = frame.Encode(r.buf[:0])
	if err := r.writer.AppendFrame(frame.Tick, frame.SimulatedMs, r.buf); err != nil {
		r.stats.FailedWrites++
		return err
	}
	r.stats.Frames++
	r.stats.FrameBytes += int64(len(r.buf))
	r.stats.LastTick = frame.Tick
	return nil
}

// Snapshot returns a copy of the counters.
func (r *Recorder) Snapshot() Stats {
	if r == nil {
		return Stats{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Close closes the underlying writer.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.writer.Close()
}
