package packet

// HeaderKind tags which of the three closed CodingHeader variants a
// Packet carries. The variant set is fixed at compile time (spec.md §9):
// new kinds are never added without a matching code change here.
type HeaderKind uint8

const (
	KindNative HeaderKind = iota
	KindEncoded
	KindControl
)

func (k HeaderKind) String() string {
	switch k {
	case KindNative:
		return "Native"
	case KindEncoded:
		return "Encoded"
	case KindControl:
		return "Control"
	default:
		return "Unknown"
	}
}

// CodingHeader is the tagged Native/Encoded/Control variant from spec.md
// §3. Only the field matching Kind is meaningful; the others are the zero
// value. Use the constructors below rather than building one by hand so
// the invariant "exactly one variant populated" always holds.
type CodingHeader struct {
	Kind    HeaderKind
	Native  CodingInfo   // valid iff Kind == KindNative
	Encoded []CodingInfo // valid iff Kind == KindEncoded
	Control NodeID       // valid iff Kind == KindControl
}

// NewNativeHeader builds a header carrying one native payload for
// info.NextHop.
func NewNativeHeader(info CodingInfo) CodingHeader {
	return CodingHeader{Kind: KindNative, Native: info}
}

// NewEncodedHeader builds a header carrying the XOR of the listed
// natives' payloads. infos preserves the insertion order used to fold
// the XOR.
func NewEncodedHeader(infos []CodingInfo) CodingHeader {
	cp := make([]CodingInfo, len(infos))
	copy(cp, infos)
	return CodingHeader{Kind: KindEncoded, Encoded: cp}
}

// NewControlHeader builds a header that carries no payload, existing
// solely to piggyback acknowledgements when no data is flowing.
func NewControlHeader(to NodeID) CodingHeader {
	return CodingHeader{Kind: KindControl, Control: to}
}

// IsNextHop reports whether id appears as the NextHop of any CodingInfo
// in infos — i.e. whether id is an intended recipient of this Encoded set.
func IsNextHop(id NodeID, infos []CodingInfo) bool {
	for _, info := range infos {
		if info.NextHop == id {
			return true
		}
	}
	return false
}
