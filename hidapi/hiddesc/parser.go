package hiddesc

import "encoding/binary"

type collectionFrame struct {
	page  uint16
	usage uint16
	typ   uint8
}

const collectionTypeApplication = 0x01

// parserState carries the Global and Local item state of the descriptor
// bytecode plus the per-report accumulators.
type parserState struct {
	usagePage   uint16
	usage       uint16
	reportID    uint8
	reportSize  uint32
	reportCount uint32

	collections []collectionFrame

	bits       map[uint8]int
	directions map[uint8]Direction
	pairs      map[uint8]map[UsagePair]struct{}
}

func newParserState() *parserState {
	return &parserState{
		bits:       make(map[uint8]int),
		directions: make(map[uint8]Direction),
		pairs:      make(map[uint8]map[UsagePair]struct{}),
	}
}

// collectionPair returns the usage pair the current data field should be
// attributed to: the nearest enclosing Application collection, or the
// innermost collection when no Application collection is open.
func (s *parserState) collectionPair() (UsagePair, bool) {
	if len(s.collections) == 0 {
		return UsagePair{}, false
	}
	for i := len(s.collections) - 1; i >= 0; i-- {
		if s.collections[i].typ == collectionTypeApplication {
			return UsagePair{Page: s.collections[i].page, Usage: s.collections[i].usage}, true
		}
	}
	top := s.collections[len(s.collections)-1]
	return UsagePair{Page: top.page, Usage: top.usage}, true
}

func (s *parserState) accumulate(dir Direction) {
	s.bits[s.reportID] += int(s.reportSize * s.reportCount)
	s.directions[s.reportID] |= dir
	if pair, ok := s.collectionPair(); ok {
		if s.pairs[s.reportID] == nil {
			s.pairs[s.reportID] = make(map[UsagePair]struct{})
		}
		s.pairs[s.reportID][pair] = struct{}{}
	}
}

// Parse decodes a HID Report Descriptor into definitions keyed by report ID.
// It never fails: a truncated item or an invalid long-item header stops the
// scan and whatever was accumulated up to that point is returned.
func Parse(descriptor []byte) map[uint8]ReportDefinition {
	state := newParserState()

	i := 0
	for i < len(descriptor) {
		prefix := Tag(descriptor[i])

		if prefix == longItemPrefix {
			if i+2 >= len(descriptor) {
				break
			}
			i += 2 + int(descriptor[i+1])
			continue
		}

		size := prefix.PayloadSize()
		if i+1+size > len(descriptor) {
			break
		}
		value := itemValue(descriptor[i+1 : i+1+size])

		switch prefix.ItemType() {
		case ItemTypeGlobal:
			state.global(prefix.Prefix(), value)
		case ItemTypeLocal:
			if prefix.Prefix() == TagUsage {
				state.usage = uint16(value)
			}
		case ItemTypeMain:
			state.main(prefix.Prefix(), value)
		}

		i += 1 + size
	}

	return state.finalize()
}

func (s *parserState) global(tag Tag, value uint32) {
	switch tag {
	case TagUsagePage:
		s.usagePage = uint16(value)
	case TagReportSize:
		s.reportSize = value
	case TagReportCount:
		s.reportCount = value
	case TagReportID:
		s.reportID = uint8(value)
	}
}

func (s *parserState) main(tag Tag, value uint32) {
	switch tag {
	case TagCollection:
		s.collections = append(s.collections, collectionFrame{
			page:  s.usagePage,
			usage: s.usage,
			typ:   uint8(value),
		})
		s.usage = 0
	case TagEndCollection:
		if len(s.collections) > 0 {
			s.collections = s.collections[:len(s.collections)-1]
		}
	case TagInput:
		s.accumulate(DirectionInput)
	case TagOutput:
		s.accumulate(DirectionOutput)
	case TagFeature:
		s.accumulate(DirectionFeature)
	}
	// Report Size and Report Count describe a single field, not a sticky
	// default. Without this reset the next field silently inherits them.
	if tag == TagInput || tag == TagOutput || tag == TagFeature {
		s.reportSize = 0
		s.reportCount = 0
	}
}

func itemValue(payload []byte) uint32 {
	switch len(payload) {
	case 1:
		return uint32(payload[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(payload))
	case 4:
		return binary.LittleEndian.Uint32(payload)
	default:
		return 0
	}
}

func (s *parserState) finalize() map[uint8]ReportDefinition {
	definitions := make(map[uint8]ReportDefinition, len(s.bits))
	for id, bits := range s.bits {
		pairs := s.pairs[id]
		if pairs == nil {
			pairs = make(map[UsagePair]struct{})
		}
		definitions[id] = ReportDefinition{
			ID:         id,
			Kind:       KindOf(pairs),
			SizeBytes:  (bits + 7) / 8,
			Bits:       bits,
			Directions: s.directions[id],
			UsagePairs: pairs,
		}
	}
	return definitions
}
