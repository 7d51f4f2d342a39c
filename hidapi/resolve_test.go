package hidapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hidlink/hidlink/hidapi/hiddesc"
)

func definitionTable(defs ...hiddesc.ReportDefinition) map[uint8]hiddesc.ReportDefinition {
	table := make(map[uint8]hiddesc.ReportDefinition, len(defs))
	for _, def := range defs {
		table[def.ID] = def
	}
	return table
}

func TestResolve(t *testing.T) {
	keyboard := hiddesc.ReportDefinition{ID: 1, Kind: hiddesc.KindKeyboard, SizeBytes: 8}
	mouse := hiddesc.ReportDefinition{ID: 2, Kind: hiddesc.KindMouse, SizeBytes: 4}
	consumer := hiddesc.ReportDefinition{ID: 3, Kind: hiddesc.KindConsumer, SizeBytes: 2}

	tests := []struct {
		name     string
		table    map[uint8]hiddesc.ReportDefinition
		payload  []byte
		ok       bool
		reportID uint8
		reason   ResolutionReason
		payloadL int
	}{
		{
			name:     "report id exact",
			table:    definitionTable(keyboard, mouse),
			payload:  []byte{0x01, 0, 0, 0, 0x04, 0, 0, 0, 0},
			ok:       true,
			reportID: 1,
			reason:   ReasonReportIDExact,
			payloadL: 8,
		},
		{
			name:     "report id with zero padding",
			table:    definitionTable(keyboard, mouse),
			payload:  []byte{0x02, 0x01, 0x05, 0x00, 0x00, 0x00, 0x00},
			ok:       true,
			reportID: 2,
			reason:   ReasonReportIDPadded,
			payloadL: 4,
		},
		{
			name:    "report id with non-zero tail fails over to length",
			table:   definitionTable(keyboard, mouse),
			payload: []byte{0x02, 0x01, 0x05, 0x00, 0x00, 0x00, 0x01},
			ok:      false,
		},
		{
			name:     "length exact unique",
			table:    definitionTable(keyboard, mouse),
			payload:  []byte{0x00, 0x01, 0x02, 0x03},
			ok:       true,
			reportID: 2,
			reason:   ReasonLengthExact,
			payloadL: 4,
		},
		{
			name:     "length with zero padding unique",
			table:    definitionTable(consumer),
			payload:  []byte{0xe9, 0x00, 0x00, 0x00, 0x00},
			ok:       true,
			reportID: 3,
			reason:   ReasonLengthPadded,
			payloadL: 2,
		},
		{
			name: "equal sizes are ambiguous",
			table: definitionTable(
				hiddesc.ReportDefinition{ID: 4, Kind: hiddesc.KindKeyboard, SizeBytes: 4},
				mouse,
			),
			payload: []byte{0x00, 0x01, 0x02, 0x03},
			ok:      false,
		},
		{
			name:    "empty table",
			table:   nil,
			payload: []byte{0x01, 0x02},
			ok:      false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resolver := NewResolver(tc.table)
			resolved, ok := resolver.Resolve(tc.payload)
			require.Equal(t, tc.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.reportID, resolved.ReportID)
			assert.Equal(t, tc.reason, resolved.Reason)
			assert.Len(t, resolved.Payload, tc.payloadL)
		})
	}
}

// A leading byte that matches a known report ID must resolve through the ID
// path even when the bare payload length would also match another report.
func TestResolveIDBeatsLength(t *testing.T) {
	table := definitionTable(
		hiddesc.ReportDefinition{ID: 1, Kind: hiddesc.KindKeyboard, SizeBytes: 8},
		hiddesc.ReportDefinition{ID: 2, Kind: hiddesc.KindMouse, SizeBytes: 9},
	)
	resolver := NewResolver(table)

	resolved, ok := resolver.Resolve([]byte{0x01, 0, 0, 0, 0, 0, 0, 0, 0})
	require.True(t, ok)
	assert.Equal(t, uint8(1), resolved.ReportID)
	assert.Equal(t, ReasonReportIDExact, resolved.Reason)
}

func TestHeuristicKind(t *testing.T) {
	tests := []struct {
		length int
		kind   hiddesc.ReportKind
	}{
		{0, hiddesc.KindUnknown},
		{1, hiddesc.KindSystem},
		{2, hiddesc.KindConsumer},
		{3, hiddesc.KindConsumer},
		{4, hiddesc.KindMouse},
		{7, hiddesc.KindMouse},
		{8, hiddesc.KindKeyboard},
		{9, hiddesc.KindKeyboard},
		{10, hiddesc.KindUnknown},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.kind, HeuristicKind(tc.length), "length %d", tc.length)
	}
}
