// Package notes maps frequencies onto 12-tone equal temperament.
package notes

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tphakala/pitchtrack/internal/errors"
)

// ComponentNotes identifies errors raised by this package
const ComponentNotes = "notes"

// DefaultA4 is the standard concert pitch in Hz.
const DefaultA4 = 440.0

// c0Ratio is 2^-4.75, the distance from A4 down to C0 (57 semitones).
var c0Ratio = math.Exp2(-4.75)

// Names lists the pitch classes starting at C.
var Names = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Tuning is an equal temperament reference anchored at A4.
type Tuning struct {
	A4 float64
}

// DefaultTuning returns the tuning with A4 = 440 Hz.
func DefaultTuning() Tuning {
	return Tuning{A4: DefaultA4}
}

// NewTuning returns a tuning anchored at a4 Hz.
func NewTuning(a4 float64) (Tuning, error) {
	if !(a4 > 0) || math.IsInf(a4, 0) {
		return Tuning{}, errors.Newf("tuning reference must be a positive frequency, got %g", a4).
			Component(ComponentNotes).
			Category(errors.CategoryValidation).
			Build()
	}
	return Tuning{A4: a4}, nil
}

// C0 returns the frequency of C0 in this tuning.
func (t Tuning) C0() float64 {
	return t.A4 * c0Ratio
}

// Frequency returns the equal temperament frequency of a note name in an octave.
func (t Tuning) Frequency(name string, octave int) (float64, error) {
	idx := indexOf(name)
	if idx < 0 {
		return 0, errors.Newf("unknown note name %q", name).
			Component(ComponentNotes).
			Category(errors.CategoryValidation).
			Build()
	}
	h := octave*12 + idx
	return t.C0() * math.Exp2(float64(h)/12), nil
}

func indexOf(name string) int {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Note is a frequency quantized to the nearest equal temperament pitch.
type Note struct {
	Name   string  // pitch class, one of Names
	Octave int     // scientific pitch notation octave, C4 is middle C
	Cents  float64 // deviation from the quantized pitch in [-50, 50]
}

// String formats the note the way events print it, e.g. "A-4".
func (n Note) String() string {
	return fmt.Sprintf("%s-%d", n.Name, n.Octave)
}

// Mapper converts frequencies to notes.
type Mapper struct {
	tuning Tuning
	c0     float64
}

// NewMapper returns a mapper for tuning.
func NewMapper(tuning Tuning) *Mapper {
	return &Mapper{tuning: tuning, c0: tuning.C0()}
}

// Tuning returns the mapper's reference.
func (m *Mapper) Tuning() Tuning {
	return m.tuning
}

// Map returns the nearest note to freq. It panics when freq is not a positive finite number.
func (m *Mapper) Map(freq float64) Note {
	if !(freq > 0) || math.IsInf(freq, 0) {
		panic(fmt.Sprintf("notes: frequency must be positive and finite, got %g", freq))
	}

	exact := 12 * math.Log2(freq/m.c0)
	h := math.Round(exact)
	steps := int(h)

	return Note{
		Name:   Names[floorMod(steps, 12)],
		Octave: floorDiv(steps, 12),
		Cents:  100 * (exact - h),
	}
}

// Event is a note detected in one analysis window.
type Event struct {
	Note
	FrequencyHz float64
	Clarity     float64
	Sequence    uint64    // window index since the stream started
	Timestamp   time.Time // when the window was completed
}

// String renders the event as a console line.
func (e Event) String() string {
	return fmt.Sprintf("Note: %s, Frequency: %.2f, Clarity: %.3f", e.Note, e.FrequencyHz, e.Clarity)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}
