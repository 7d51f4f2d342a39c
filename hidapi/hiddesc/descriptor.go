// Package hiddesc parses binary HID Report Descriptors into per-report-ID
// definitions. The descriptor originates from an external peripheral and is
// treated as untrusted input: every read is bounds-checked and malformed
// descriptors yield partial results instead of errors.
package hiddesc

// ReportKind classifies a report by the application usage it belongs to.
type ReportKind uint8

const (
	KindUnknown ReportKind = iota
	KindKeyboard
	KindMouse
	KindConsumer
	KindSystem
)

func (k ReportKind) String() string {
	switch k {
	case KindKeyboard:
		return "keyboard"
	case KindMouse:
		return "mouse"
	case KindConsumer:
		return "consumer"
	case KindSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Direction is a bit set of the report I/O directions seen for a report ID.
type Direction uint8

const (
	DirectionInput Direction = 1 << iota
	DirectionOutput
	DirectionFeature
)

func (d Direction) HasInput() bool {
	return d&DirectionInput != 0
}

func (d Direction) HasOutput() bool {
	return d&DirectionOutput != 0
}

func (d Direction) HasFeature() bool {
	return d&DirectionFeature != 0
}

// UsagePair is HID's two-level semantic code for a field or collection.
type UsagePair struct {
	Page  uint16
	Usage uint16
}

// ReportDefinition describes the shape of one numbered report. ID 0 is used
// by devices that never declare an explicit Report ID item.
type ReportDefinition struct {
	ID         uint8
	Kind       ReportKind
	SizeBytes  int
	Bits       int
	Directions Direction
	UsagePairs map[UsagePair]struct{}
}

// kindPriority is the fixed classification order: the first pair present in
// the definition's usage set decides the kind.
var kindPriority = []struct {
	pair UsagePair
	kind ReportKind
}{
	{UsagePair{Page: 0x01, Usage: 0x02}, KindMouse},
	{UsagePair{Page: 0x01, Usage: 0x06}, KindKeyboard},
	{UsagePair{Page: 0x0C, Usage: 0x01}, KindConsumer},
	{UsagePair{Page: 0x01, Usage: 0x80}, KindSystem},
}

// KindOf resolves the report kind for a set of usage pairs.
func KindOf(pairs map[UsagePair]struct{}) ReportKind {
	for _, p := range kindPriority {
		if _, ok := pairs[p.pair]; ok {
			return p.kind
		}
	}
	return KindUnknown
}
