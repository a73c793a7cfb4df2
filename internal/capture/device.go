// Package capture owns the audio capture device abstraction. The production
// device hands out stream-backed sessions that buffer binary frames pushed
// by the client over a websocket; the recording lifecycle only ever sees the
// Device and Session interfaces.
package capture

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrDeviceBusy is returned when a capture session already exists for the
// intake session; at most one recording may hold the device.
var ErrDeviceBusy = errors.New("capture device already acquired")

// ErrSessionClosed is returned for writes after the session was released.
var ErrSessionClosed = errors.New("capture session closed")

// Device grants capture sessions. Acquire failures map to the recoverable
// device-denied condition upstream.
type Device interface {
	Acquire(sessionId uuid.UUID) (Session, error)
}

// Session is a scoped capture resource: frames in, one buffer out, released
// exactly once by Close.
type Session interface {
	Write(frame []byte) (int, error)
	Bytes() []byte
	Close() error
}

// StreamDevice is the websocket-fed Device. The stream route looks sessions
// up by intake session id and pushes frames into them.
type StreamDevice struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*streamSession
}

func NewStreamDevice() *StreamDevice {
	return &StreamDevice{
		sessions: make(map[uuid.UUID]*streamSession),
	}
}

func (d *StreamDevice) Acquire(sessionId uuid.UUID) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[sessionId]; ok {
		return nil, ErrDeviceBusy
	}
	s := &streamSession{device: d, id: sessionId}
	d.sessions[sessionId] = s
	return s, nil
}

// Lookup returns the live capture session for an intake session, if any.
func (d *StreamDevice) Lookup(sessionId uuid.UUID) (Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[sessionId]
	return s, ok
}

func (d *StreamDevice) release(sessionId uuid.UUID) {
	d.mu.Lock()
	delete(d.sessions, sessionId)
	d.mu.Unlock()
}

type streamSession struct {
	device *StreamDevice
	id     uuid.UUID

	mu     sync.Mutex
	buf    []byte
	closed bool
}

func (s *streamSession) Write(frame []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	s.buf = append(s.buf, frame...)
	return len(frame), nil
}

func (s *streamSession) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}

// Close releases the device slot. Idempotent so the unconditional release in
// stop() can never double-free.
func (s *streamSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.device.release(s.id)
	return nil
}
