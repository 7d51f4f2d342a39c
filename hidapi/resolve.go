package hidapi

import (
	"sort"

	"github.com/hidlink/hidlink/hidapi/hiddesc"
)

// ResolutionReason records how a payload was matched to a definition.
type ResolutionReason uint8

const (
	ReasonReportIDExact ResolutionReason = iota
	ReasonReportIDPadded
	ReasonLengthExact
	ReasonLengthPadded
)

func (r ResolutionReason) String() string {
	switch r {
	case ReasonReportIDExact:
		return "report-id-exact"
	case ReasonReportIDPadded:
		return "report-id-padded"
	case ReasonLengthExact:
		return "length-exact"
	case ReasonLengthPadded:
		return "length-padded"
	default:
		return "unknown"
	}
}

// ResolvedReport is the transient result of matching one notification
// payload against the definition table. Payload is trimmed to the
// definition's size.
type ResolvedReport struct {
	ReportID   uint8
	Definition hiddesc.ReportDefinition
	Payload    []byte
	IDIncluded bool
	Reason     ResolutionReason
}

// Resolver matches raw notification payloads to report definitions. It is a
// pure function of the payload and the table built at descriptor-read time.
type Resolver struct {
	definitions map[uint8]hiddesc.ReportDefinition
	ids         []uint8
}

func NewResolver(definitions map[uint8]hiddesc.ReportDefinition) *Resolver {
	ids := make([]uint8, 0, len(definitions))
	for id := range definitions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &Resolver{definitions: definitions, ids: ids}
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// Resolve determines which report definition applies to raw. Resolution by
// leading report ID wins over length matching; padded variants only match
// when the trailing bytes are all zero; any ambiguity fails the resolution
// and the caller falls back to fixed-size heuristics.
func (r *Resolver) Resolve(raw []byte) (ResolvedReport, bool) {
	if len(r.definitions) == 0 {
		return ResolvedReport{}, false
	}

	if len(raw) > 0 {
		if def, ok := r.definitions[raw[0]]; ok {
			payload := raw[1:]
			switch {
			case len(payload) == def.SizeBytes:
				return ResolvedReport{
					ReportID:   def.ID,
					Definition: def,
					Payload:    payload,
					IDIncluded: true,
					Reason:     ReasonReportIDExact,
				}, true
			case len(payload) > def.SizeBytes && allZero(payload[def.SizeBytes:]):
				return ResolvedReport{
					ReportID:   def.ID,
					Definition: def,
					Payload:    payload[:def.SizeBytes],
					IDIncluded: true,
					Reason:     ReasonReportIDPadded,
				}, true
			}
		}
	}

	var exact []hiddesc.ReportDefinition
	for _, id := range r.ids {
		if def := r.definitions[id]; def.SizeBytes == len(raw) {
			exact = append(exact, def)
		}
	}
	if len(exact) == 1 {
		return ResolvedReport{
			ReportID:   exact[0].ID,
			Definition: exact[0],
			Payload:    raw,
			Reason:     ReasonLengthExact,
		}, true
	}
	if len(exact) > 1 {
		return ResolvedReport{}, false
	}

	var padded []hiddesc.ReportDefinition
	for _, id := range r.ids {
		def := r.definitions[id]
		if def.SizeBytes < len(raw) && allZero(raw[def.SizeBytes:]) {
			padded = append(padded, def)
		}
	}
	if len(padded) == 1 {
		return ResolvedReport{
			ReportID:   padded[0].ID,
			Definition: padded[0],
			Payload:    raw[:padded[0].SizeBytes],
			Reason:     ReasonLengthPadded,
		}, true
	}
	return ResolvedReport{}, false
}

// HeuristicKind guesses a report kind from the payload length alone, used
// when no definition table is available or resolution was ambiguous.
func HeuristicKind(length int) hiddesc.ReportKind {
	switch {
	case length == 1:
		return hiddesc.KindSystem
	case length == 2 || length == 3:
		return hiddesc.KindConsumer
	case length >= 4 && length <= 7:
		return hiddesc.KindMouse
	case length == 8 || length == 9:
		return hiddesc.KindKeyboard
	default:
		return hiddesc.KindUnknown
	}
}
