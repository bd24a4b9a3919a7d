package packet

import "fmt"

// ReceptionReport is reserved for a future reception-quality report
// header; it is always empty in this specification.
type ReceptionReport struct{}

// Packet is one on-the-wire unit: a coding header, a reserved reception
// header, piggybacked acks, and a payload.
type Packet struct {
	Sender          NodeID
	CodingHeader    CodingHeader
	ReceptionHeader []ReceptionReport // reserved, always empty
	AckHeader       []Ack
	Data            PacketData
}

// BuildError reports that Build was called without a required field set.
// Programmer error: fail fast, never recovered from.
type BuildError struct {
	Field string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("packet: missing required field %q", e.Field)
}

// Builder assembles a Packet incrementally and validates it at Build time.
type Builder struct {
	sender       NodeID
	senderSet    bool
	codingHeader CodingHeader
	headerSet    bool
	acks         []Ack
	data         PacketData
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Sender(id NodeID) *Builder {
	b.sender = id
	b.senderSet = true
	return b
}

func (b *Builder) Header(h CodingHeader) *Builder {
	b.codingHeader = h
	b.headerSet = true
	return b
}

func (b *Builder) Acks(acks []Ack) *Builder {
	b.acks = acks
	return b
}

func (b *Builder) Data(d PacketData) *Builder {
	b.data = d
	return b
}

// Build validates and returns the assembled Packet, or a *BuildError if a
// required field is missing, or a *BuildError-shaped validation failure if
// the Kind/Data pairing violates spec.md §3 (Native/Encoded require
// non-empty data; Control requires empty data).
func (b *Builder) Build() (Packet, error) {
	if !b.senderSet {
		return Packet{}, &BuildError{Field: "sender"}
	}
	if !b.headerSet {
		return Packet{}, &BuildError{Field: "coding_header"}
	}

	switch b.codingHeader.Kind {
	case KindNative, KindEncoded:
		if len(b.data) == 0 {
			return Packet{}, &BuildError{Field: "data (required non-empty for Native/Encoded)"}
		}
	case KindControl:
		if len(b.data) != 0 {
			return Packet{}, &BuildError{Field: "data (must be empty for Control)"}
		}
	default:
		return Packet{}, &BuildError{Field: "coding_header.kind"}
	}

	acks := make([]Ack, len(b.acks))
	for i, a := range b.acks {
		acks[i] = a.Clone()
	}

	return Packet{
		Sender:       b.sender,
		CodingHeader: b.codingHeader,
		AckHeader:    acks,
		Data:         b.data.Clone(),
	}, nil
}
