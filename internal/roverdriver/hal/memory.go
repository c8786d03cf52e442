package hal

import (
	"fmt"
	"sync"

	"github.com/autopeer-io/rover/internal/roverdriver/core"
)

// WriteKind tells a digital write from a servo write.
type WriteKind string

const (
	WriteDigital WriteKind = "digital"
	WriteServo   WriteKind = "servo"
)

// Write is one recorded pin write. Value is 0/1 for digital writes and degrees for servos.
type Write struct {
	Pin   int
	Kind  WriteKind
	Value int
}

// MemoryBoard records pin writes instead of driving hardware.
type MemoryBoard struct {
	mu      sync.Mutex
	claimed map[int]WriteKind
	values  map[int]int
	writes  []Write

	// FailPins makes writes on the listed pins fail.
	FailPins map[int]error
}

var _ core.Board = (*MemoryBoard)(nil)

func NewMemoryBoard() *MemoryBoard {
	return &MemoryBoard{
		claimed: make(map[int]WriteKind),
		values:  make(map[int]int),
	}
}

func (b *MemoryBoard) claim(pin int, kind WriteKind) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.claimed[pin]; ok {
		return fmt.Errorf("pin %d already claimed", pin)
	}
	b.claimed[pin] = kind
	return nil
}

func (b *MemoryBoard) DigitalOut(pin int) (core.DigitalOut, error) {
	if err := b.claim(pin, WriteDigital); err != nil {
		return nil, err
	}
	return memoryOut{b: b, pin: pin}, nil
}

func (b *MemoryBoard) Servo(pin int) (core.Servo, error) {
	if err := b.claim(pin, WriteServo); err != nil {
		return nil, err
	}
	return memoryServo{b: b, pin: pin}, nil
}

func (b *MemoryBoard) Close() error { return nil }

func (b *MemoryBoard) record(w Write) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.FailPins[w.Pin]; err != nil {
		return err
	}
	b.values[w.Pin] = w.Value
	b.writes = append(b.writes, w)
	return nil
}

// Writes returns a copy of every recorded write, oldest first.
func (b *MemoryBoard) Writes() []Write {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Write(nil), b.writes...)
}

// Value returns the last value written to pin and whether any write happened.
func (b *MemoryBoard) Value(pin int) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[pin]
	return v, ok
}

// High reports whether the last digital write on pin was high.
func (b *MemoryBoard) High(pin int) bool {
	v, _ := b.Value(pin)
	return v == 1
}

// Reset forgets the recorded writes but keeps the current values.
func (b *MemoryBoard) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = nil
}

type memoryOut struct {
	b   *MemoryBoard
	pin int
}

func (o memoryOut) Set(high bool) error {
	v := 0
	if high {
		v = 1
	}
	return o.b.record(Write{Pin: o.pin, Kind: WriteDigital, Value: v})
}

type memoryServo struct {
	b   *MemoryBoard
	pin int
}

func (s memoryServo) Write(degrees int) error {
	return s.b.record(Write{Pin: s.pin, Kind: WriteServo, Value: degrees})
}
