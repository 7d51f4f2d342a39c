package hiddesc

// Short item prefix layout: tttt ttss, where the upper six bits select the
// item and the lower two bits encode the payload size (0, 1, 2 or 4 bytes).
const (
	TagInput         Tag = 0x80
	TagOutput        Tag = 0x90
	TagFeature       Tag = 0xB0
	TagCollection    Tag = 0xA0
	TagEndCollection Tag = 0xC0

	TagUsagePage   Tag = 0x04
	TagReportSize  Tag = 0x74
	TagReportID    Tag = 0x84
	TagReportCount Tag = 0x94

	TagUsage Tag = 0x08
)

// longItemPrefix introduces a long item: one length byte followed by that
// many payload bytes. Long items carry no information we need and are skipped.
const longItemPrefix = 0xFE

type Tag uint8

// Prefix strips the payload size bits, leaving the comparable tag value.
func (t Tag) Prefix() Tag {
	return t & 0xFC
}

type ItemType uint8

const (
	ItemTypeMain ItemType = iota
	ItemTypeGlobal
	ItemTypeLocal
)

func (t Tag) ItemType() ItemType {
	return ItemType((t >> 2) & 0x03)
}

// itemPayloadSizes maps the two size bits to a byte count. The size code 3
// means four bytes, not three.
var itemPayloadSizes = [4]int{0, 1, 2, 4}

func (t Tag) PayloadSize() int {
	return itemPayloadSizes[t&0x03]
}
