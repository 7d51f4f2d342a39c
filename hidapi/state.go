package hidapi

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// SourceState is the mutable tracking block for one report handle. It is
// only ever touched by the decode path of that source, so no locking is
// needed inside it.
type SourceState struct {
	pressed    map[uint16]struct{}
	pressTimes map[uint16]time.Time

	mediaPressed map[uint16]struct{}
	mediaTimes   map[uint16]time.Time

	systemPressed map[uint16]struct{}
	systemTimes   map[uint16]time.Time

	modifiers map[uint16]struct{}

	mouse mouseLengths
}

func NewSourceState() *SourceState {
	s := &SourceState{}
	s.Reset()
	return s
}

// Reset discards all tracked presses and learned mouse lengths at once.
func (s *SourceState) Reset() {
	s.pressed = make(map[uint16]struct{})
	s.pressTimes = make(map[uint16]time.Time)
	s.mediaPressed = make(map[uint16]struct{})
	s.mediaTimes = make(map[uint16]time.Time)
	s.systemPressed = make(map[uint16]struct{})
	s.systemTimes = make(map[uint16]time.Time)
	s.modifiers = make(map[uint16]struct{})
	s.mouse = mouseLengths{}
}

// Modifiers returns a snapshot of the active modifier keycodes.
func (s *SourceState) Modifiers() map[uint16]struct{} {
	snapshot := make(map[uint16]struct{}, len(s.modifiers))
	for code := range s.modifiers {
		snapshot[code] = struct{}{}
	}
	return snapshot
}

// mouseLengths is a bounded estimator for the actual mouse payload length of
// a device that does not match any report definition exactly. It remembers
// the last few observed lengths and their counts; its answer is advisory and
// tolerant of being wrong for one frame.
type mouseLengths struct {
	samples []int
	counts  map[int]int
}

const (
	mouseLengthWindow = 16
	// deltaNoiseThreshold keeps all-zero idle reports from teaching the
	// estimator a bogus length.
	deltaNoiseThreshold = 1
)

func (m *mouseLengths) observe(length int) {
	if m.counts == nil {
		m.counts = make(map[int]int)
	}
	m.samples = append(m.samples, length)
	m.counts[length]++
	if len(m.samples) > mouseLengthWindow {
		evicted := m.samples[0]
		m.samples = m.samples[1:]
		m.counts[evicted]--
		if m.counts[evicted] == 0 {
			delete(m.counts, evicted)
		}
	}
}

func (m *mouseLengths) effective(rawLength int) int {
	distinct := 0
	single := 0
	for length := range m.counts {
		if length >= 4 {
			distinct++
			single = length
		}
	}
	if distinct == 1 {
		return single
	}
	if len(m.samples) >= 3 {
		best, bestCount := 0, 0
		for length, count := range m.counts {
			if count > bestCount || (count == bestCount && length < best) {
				best, bestCount = length, count
			}
		}
		if best > 0 {
			return best
		}
	}
	switch rawLength {
	case 4, 5, 6:
		return rawLength
	default:
		return 5
	}
}

// Store owns the per-source states. Sources are created lazily on first
// report and dropped wholesale on link teardown.
type Store struct {
	states *xsync.MapOf[string, *SourceState]
}

func NewStore() *Store {
	return &Store{states: xsync.NewMapOf[string, *SourceState]()}
}

func (s *Store) Get(source string) *SourceState {
	state, _ := s.states.LoadOrCompute(source, NewSourceState)
	return state
}

func (s *Store) Drop(source string) {
	s.states.Delete(source)
}

// DropAll atomically discards every source state, guaranteeing no key stays
// logically pressed across a reconnect.
func (s *Store) DropAll() {
	s.states.Range(func(source string, _ *SourceState) bool {
		s.states.Delete(source)
		return true
	})
}
