package packet

import "testing"

func TestCodingInfoEqual(t *testing.T) {
	a := CodingInfo{Source: 'A', Seqno: 1, NextHop: 'B'}
	b := CodingInfo{Source: 'A', Seqno: 1, NextHop: 'B'}
	c := CodingInfo{Source: 'A', Seqno: 2, NextHop: 'B'}

	if !a.Equal(b) {
		t.Fatal("expected a == b")
	}
	if a.Equal(c) {
		t.Fatal("expected a != c")
	}
}

func TestPacketDataXorIsSelfInverse(t *testing.T) {
	data := PacketData([]byte{0x01, 0x02, 0x03})
	other := PacketData([]byte{0x10, 0x20, 0x30})

	xored := data.Clone()
	xored.Xor(other)
	xored.Xor(other)

	for i := range data {
		if xored[i] != data[i] {
			t.Fatalf("xor not self-inverse at %d: got %x want %x", i, xored[i], data[i])
		}
	}
}

func TestPacketDataXorLeavesLongerTailUntouched(t *testing.T) {
	data := PacketData([]byte{0x11, 0x22, 0x33, 0x44})
	short := PacketData([]byte{0xff, 0xff})

	data.Xor(short)

	if data[0] != 0x11^0xff || data[1] != 0x22^0xff {
		t.Fatalf("unexpected xor result on overlapping range: %x", data[:2])
	}
	if data[2] != 0x33 || data[3] != 0x44 {
		t.Fatalf("tail should be untouched, got %x", data[2:])
	}
}

func TestPacketDataRightPad(t *testing.T) {
	data := PacketData([]byte{0x01})
	padded := data.RightPad(4, 0x00)
	if len(padded) != 4 {
		t.Fatalf("expected length 4, got %d", len(padded))
	}
	if padded[0] != 0x01 {
		t.Fatal("original byte should be preserved")
	}
	for _, b := range padded[1:] {
		if b != 0x00 {
			t.Fatal("padding byte mismatch")
		}
	}

	// RightPad never shrinks.
	same := padded.RightPad(2, 0xff)
	if len(same) != 4 {
		t.Fatal("RightPad must not shrink an already-long buffer")
	}
}

func TestIsNextHop(t *testing.T) {
	infos := []CodingInfo{
		{Source: 'A', Seqno: 1, NextHop: 'B'},
		{Source: 'C', Seqno: 2, NextHop: 'D'},
	}
	if !IsNextHop('B', infos) {
		t.Fatal("expected B to be a next hop")
	}
	if IsNextHop('Z', infos) {
		t.Fatal("expected Z not to be a next hop")
	}
}

func TestBuilderRejectsMissingFields(t *testing.T) {
	if _, err := NewBuilder().Build(); err == nil {
		t.Fatal("expected BuildError for missing sender")
	}

	_, err := NewBuilder().Sender('A').Build()
	if _, ok := err.(*BuildError); !ok {
		t.Fatalf("expected *BuildError, got %T", err)
	}
}

func TestBuilderRejectsEmptyDataOnNative(t *testing.T) {
	info := CodingInfo{Source: 'A', Seqno: 1, NextHop: 'B'}
	_, err := NewBuilder().Sender('A').Header(NewNativeHeader(info)).Build()
	if err == nil {
		t.Fatal("expected error for Native with empty data")
	}
}

func TestBuilderRejectsNonEmptyDataOnControl(t *testing.T) {
	_, err := NewBuilder().
		Sender('A').
		Header(NewControlHeader('B')).
		Data(PacketData([]byte{0x01})).
		Build()
	if err == nil {
		t.Fatal("expected error for Control with non-empty data")
	}
}

func TestBuilderBuildsValidNative(t *testing.T) {
	info := CodingInfo{Source: 'A', Seqno: 1, NextHop: 'B'}
	p, err := NewBuilder().
		Sender('A').
		Header(NewNativeHeader(info)).
		Data(PacketData([]byte{0x01, 0x02})).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CodingHeader.Kind != KindNative || !p.CodingHeader.Native.Equal(info) {
		t.Fatal("built packet does not carry the expected native header")
	}
}
