package packet

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Wire format (spec.md §6), little-endian throughout:
//
//	sender            NodeID                     1 byte
//	coding_header tag  uint8                      1 byte (0=Native 1=Encoded 2=Control)
//	  Native           CodingInfo                 6 bytes (source 1 + seqno 4 + nexthop 1)
//	  Encoded          count uint8 + CodingInfo*   1 + 6*count bytes
//	  Control          NodeID                      1 byte
//	reception_header   count uint8 (always 0)      1 byte
//	ack_header         count uint8 + Ack*
//	  Ack              source NodeID + count uint8 + CodingInfo*
//	data               length uint16 + bytes

func putCodingInfo(buf []byte, info CodingInfo) {
	buf[0] = byte(info.Source)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(info.Seqno))
	buf[5] = byte(info.NextHop)
}

func getCodingInfo(buf []byte) CodingInfo {
	return CodingInfo{
		Source:  NodeID(buf[0]),
		Seqno:   PacketID(binary.LittleEndian.Uint32(buf[1:5])),
		NextHop: NodeID(buf[5]),
	}
}

const codingInfoWireLen = 6

// Encode writes p's wire representation to w.
func Encode(w io.Writer, p Packet) error {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		b := bufio.NewWriter(w)
		bw = b
		defer func() { _ = b.Flush() }()
	}

	if err := bw.WriteByte(byte(p.Sender)); err != nil {
		return fmt.Errorf("write sender: %w", err)
	}
	if err := bw.WriteByte(byte(p.CodingHeader.Kind)); err != nil {
		return fmt.Errorf("write header kind: %w", err)
	}

	switch p.CodingHeader.Kind {
	case KindNative:
		var buf [codingInfoWireLen]byte
		putCodingInfo(buf[:], p.CodingHeader.Native)
		if _, err := bw.Write(buf[:]); err != nil {
			return fmt.Errorf("write native info: %w", err)
		}
	case KindEncoded:
		infos := p.CodingHeader.Encoded
		if len(infos) > 255 {
			return fmt.Errorf("encoded header: %d entries exceeds wire limit of 255", len(infos))
		}
		if err := bw.WriteByte(byte(len(infos))); err != nil {
			return fmt.Errorf("write encoded count: %w", err)
		}
		var buf [codingInfoWireLen]byte
		for _, info := range infos {
			putCodingInfo(buf[:], info)
			if _, err := bw.Write(buf[:]); err != nil {
				return fmt.Errorf("write encoded info: %w", err)
			}
		}
	case KindControl:
		if err := bw.WriteByte(byte(p.CodingHeader.Control)); err != nil {
			return fmt.Errorf("write control recipient: %w", err)
		}
	default:
		return fmt.Errorf("encode: unknown header kind %d", p.CodingHeader.Kind)
	}

	// reception_header is reserved and always empty.
	if err := bw.WriteByte(0); err != nil {
		return fmt.Errorf("write reception header length: %w", err)
	}

	if len(p.AckHeader) > 255 {
		return fmt.Errorf("ack header: %d entries exceeds wire limit of 255", len(p.AckHeader))
	}
	if err := bw.WriteByte(byte(len(p.AckHeader))); err != nil {
		return fmt.Errorf("write ack count: %w", err)
	}
	for _, ack := range p.AckHeader {
		if err := bw.WriteByte(byte(ack.Source)); err != nil {
			return fmt.Errorf("write ack source: %w", err)
		}
		if len(ack.Packets) > 255 {
			return fmt.Errorf("ack: %d packets exceeds wire limit of 255", len(ack.Packets))
		}
		if err := bw.WriteByte(byte(len(ack.Packets))); err != nil {
			return fmt.Errorf("write ack packet count: %w", err)
		}
		var buf [codingInfoWireLen]byte
		for _, info := range ack.Packets {
			putCodingInfo(buf[:], info)
			if _, err := bw.Write(buf[:]); err != nil {
				return fmt.Errorf("write ack info: %w", err)
			}
		}
	}

	var lenBuf [2]byte
	if len(p.Data) > 1<<16-1 {
		return fmt.Errorf("data: %d bytes exceeds wire limit of %d", len(p.Data), 1<<16-1)
	}
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(p.Data)))
	if _, err := bw.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write data length: %w", err)
	}
	if len(p.Data) > 0 {
		if _, err := bw.Write(p.Data); err != nil {
			return fmt.Errorf("write data: %w", err)
		}
	}

	return nil
}

// Decode reads one wire-format Packet from r.
func Decode(r io.Reader) (Packet, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	var hdr [2]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return Packet{}, fmt.Errorf("read sender/kind: %w", err)
	}
	sender := NodeID(hdr[0])
	kind := HeaderKind(hdr[1])

	var ch CodingHeader
	switch kind {
	case KindNative:
		var buf [codingInfoWireLen]byte
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			return Packet{}, fmt.Errorf("read native info: %w", err)
		}
		ch = NewNativeHeader(getCodingInfo(buf[:]))
	case KindEncoded:
		count, err := br.ReadByte()
		if err != nil {
			return Packet{}, fmt.Errorf("read encoded count: %w", err)
		}
		infos := make([]CodingInfo, count)
		var buf [codingInfoWireLen]byte
		for i := range infos {
			if _, err := io.ReadFull(br, buf[:]); err != nil {
				return Packet{}, fmt.Errorf("read encoded info %d: %w", i, err)
			}
			infos[i] = getCodingInfo(buf[:])
		}
		ch = NewEncodedHeader(infos)
	case KindControl:
		b, err := br.ReadByte()
		if err != nil {
			return Packet{}, fmt.Errorf("read control recipient: %w", err)
		}
		ch = NewControlHeader(NodeID(b))
	default:
		return Packet{}, fmt.Errorf("decode: unknown header kind %d", kind)
	}

	rhCount, err := br.ReadByte()
	if err != nil {
		return Packet{}, fmt.Errorf("read reception header length: %w", err)
	}
	if rhCount != 0 {
		if _, err := io.CopyN(io.Discard, br, int64(rhCount)); err != nil {
			return Packet{}, fmt.Errorf("skip reception header: %w", err)
		}
	}

	ackCount, err := br.ReadByte()
	if err != nil {
		return Packet{}, fmt.Errorf("read ack count: %w", err)
	}
	acks := make([]Ack, ackCount)
	for i := range acks {
		srcByte, err := br.ReadByte()
		if err != nil {
			return Packet{}, fmt.Errorf("read ack %d source: %w", i, err)
		}
		pktCount, err := br.ReadByte()
		if err != nil {
			return Packet{}, fmt.Errorf("read ack %d packet count: %w", i, err)
		}
		infos := make([]CodingInfo, pktCount)
		var buf [codingInfoWireLen]byte
		for j := range infos {
			if _, err := io.ReadFull(br, buf[:]); err != nil {
				return Packet{}, fmt.Errorf("read ack %d info %d: %w", i, j, err)
			}
			infos[j] = getCodingInfo(buf[:])
		}
		acks[i] = Ack{Source: NodeID(srcByte), Packets: infos}
	}

	var dataLenBuf [2]byte
	if _, err := io.ReadFull(br, dataLenBuf[:]); err != nil {
		return Packet{}, fmt.Errorf("read data length: %w", err)
	}
	dataLen := binary.LittleEndian.Uint16(dataLenBuf[:])
	data := make(PacketData, dataLen)
	if dataLen > 0 {
		if _, err := io.ReadFull(br, data); err != nil {
			return Packet{}, fmt.Errorf("read data: %w", err)
		}
	}

	return Packet{
		Sender:       sender,
		CodingHeader: ch,
		AckHeader:    acks,
		Data:         data,
	}, nil
}
