package record

import "encoding/binary"

// MarshalError reports that a buffer passed to an Encode/Decode function
// was too small for the record kind, grounded on the teacher's
// string-error pattern in uapi/marshal.go.
type MarshalError string

func (e MarshalError) Error() string { return string(e) }

const errBufferTooSmall = MarshalError("record: buffer too small")

// Encode* functions write directly at fixed offsets with encoding/binary,
// matching the teacher's hot-path codec (no reflection, no pointer casts).
// Each returns the number of bytes written, equal to SizeOf(kind).

func EncodeNone(buf []byte) (int, error) {
	if len(buf) < sizeNone {
		return 0, errBufferTooSmall
	}
	buf[0] = byte(KindNone)
	return sizeNone, nil
}

func EncodeDuration(buf []byte, header Header, duration uint32, beginTS uint64, namePtr uint64) (int, error) {
	if len(buf) < sizeDuration {
		return 0, errBufferTooSmall
	}
	buf[0] = byte(header)
	binary.LittleEndian.PutUint32(buf[1:5], duration)
	binary.LittleEndian.PutUint64(buf[5:13], beginTS)
	binary.LittleEndian.PutUint64(buf[13:21], namePtr)
	return sizeDuration, nil
}

func DecodeDuration(buf []byte) (header Header, duration uint32, beginTS uint64, namePtr uint64, err error) {
	if len(buf) < sizeDuration {
		return 0, 0, 0, 0, errBufferTooSmall
	}
	header = Header(buf[0])
	duration = binary.LittleEndian.Uint32(buf[1:5])
	beginTS = binary.LittleEndian.Uint64(buf[5:13])
	namePtr = binary.LittleEndian.Uint64(buf[13:21])
	return
}

func EncodeDurationColored(buf []byte, header Header, color uint8, duration uint32, beginTS uint64, namePtr uint64) (int, error) {
	if len(buf) < sizeDurationColored {
		return 0, errBufferTooSmall
	}
	buf[0] = byte(header)
	buf[1] = color
	binary.LittleEndian.PutUint32(buf[2:6], duration)
	binary.LittleEndian.PutUint64(buf[6:14], beginTS)
	binary.LittleEndian.PutUint64(buf[14:22], namePtr)
	return sizeDurationColored, nil
}

func DecodeDurationColored(buf []byte) (header Header, color uint8, duration uint32, beginTS uint64, namePtr uint64, err error) {
	if len(buf) < sizeDurationColored {
		return 0, 0, 0, 0, 0, errBufferTooSmall
	}
	header = Header(buf[0])
	color = buf[1]
	duration = binary.LittleEndian.Uint32(buf[2:6])
	beginTS = binary.LittleEndian.Uint64(buf[6:14])
	namePtr = binary.LittleEndian.Uint64(buf[14:22])
	return
}

func EncodeInstantColored(buf []byte, header Header, color uint8, ts uint64, namePtr uint64) (int, error) {
	if len(buf) < sizeInstantColored {
		return 0, errBufferTooSmall
	}
	buf[0] = byte(header)
	buf[1] = color
	binary.LittleEndian.PutUint64(buf[2:10], ts)
	binary.LittleEndian.PutUint64(buf[10:18], namePtr)
	return sizeInstantColored, nil
}

func DecodeInstantColored(buf []byte) (header Header, color uint8, ts uint64, namePtr uint64, err error) {
	if len(buf) < sizeInstantColored {
		return 0, 0, 0, 0, errBufferTooSmall
	}
	header = Header(buf[0])
	color = buf[1]
	ts = binary.LittleEndian.Uint64(buf[2:10])
	namePtr = binary.LittleEndian.Uint64(buf[10:18])
	return
}

func EncodeCounter(buf []byte, header Header, value int32, ts uint64, namePtr uint64) (int, error) {
	if len(buf) < sizeCounter {
		return 0, errBufferTooSmall
	}
	buf[0] = byte(header)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(value))
	binary.LittleEndian.PutUint64(buf[5:13], ts)
	binary.LittleEndian.PutUint64(buf[13:21], namePtr)
	return sizeCounter, nil
}

func DecodeCounter(buf []byte) (header Header, value int32, ts uint64, namePtr uint64, err error) {
	if len(buf) < sizeCounter {
		return 0, 0, 0, 0, errBufferTooSmall
	}
	header = Header(buf[0])
	value = int32(binary.LittleEndian.Uint32(buf[1:5]))
	ts = binary.LittleEndian.Uint64(buf[5:13])
	namePtr = binary.LittleEndian.Uint64(buf[13:21])
	return
}

func EncodeLink(buf []byte, header Header, dir LinkDir, linkID uint16, ts uint64) (int, error) {
	if len(buf) < sizeLink {
		return 0, errBufferTooSmall
	}
	buf[0] = byte(header)
	buf[1] = byte(dir)
	binary.LittleEndian.PutUint16(buf[2:4], linkID)
	binary.LittleEndian.PutUint64(buf[4:12], ts)
	return sizeLink, nil
}

func DecodeLink(buf []byte) (header Header, dir LinkDir, linkID uint16, ts uint64, err error) {
	if len(buf) < sizeLink {
		return 0, 0, 0, 0, errBufferTooSmall
	}
	header = Header(buf[0])
	dir = LinkDir(buf[1])
	linkID = binary.LittleEndian.Uint16(buf[2:4])
	ts = binary.LittleEndian.Uint64(buf[4:12])
	return
}

func EncodeTaskSwitch(buf []byte, header Header, ts uint64) (int, error) {
	if len(buf) < sizeTaskSwitch {
		return 0, errBufferTooSmall
	}
	buf[0] = byte(header)
	binary.LittleEndian.PutUint64(buf[1:9], ts)
	return sizeTaskSwitch, nil
}

func DecodeTaskSwitch(buf []byte) (header Header, ts uint64, err error) {
	if len(buf) < sizeTaskSwitch {
		return 0, 0, errBufferTooSmall
	}
	header = Header(buf[0])
	ts = binary.LittleEndian.Uint64(buf[1:9])
	return
}

// PeekHeader reads just the leading byte of buf, the minimum needed to
// determine a record's kind and therefore its size (spec §4.1
// Parseability contract).
func PeekHeader(buf []byte) (Header, error) {
	if len(buf) < 1 {
		return 0, errBufferTooSmall
	}
	return Header(buf[0]), nil
}
