package record

import "unsafe"

// NamePtr fields hold the address of an immutable string supplied by the
// caller (spec §3 "name pointer... the core never copies name bytes").
// Go strings are not NUL-terminated, so a bare address is not enough to
// recover one; the high 16 bits of the 64-bit field pack the string's
// length alongside the low 48 bits of its data pointer (ample on every
// Go-supported amd64/arm64 user-space address space). This is the same
// bit-packing-for-a-fixed-width-field texture the target platform's
// per-kind bodies use elsewhere (spec §9 "variable-width records").
//
// The zero-alloc, zero-copy contract is unchanged: PackName stores a
// pointer into the caller's string, never a copy, and the caller must
// keep the string alive until any snapshot that might read the record has
// completed (in practice, string literals, which live for the program's
// duration).
func PackName(name string) uint64 {
	if len(name) == 0 {
		return 0
	}
	addr := uintptr(unsafe.Pointer(unsafe.StringData(name)))
	return (uint64(addr) & 0xFFFFFFFFFFFF) | (uint64(uint16(len(name))) << 48)
}

// UnpackName reconstructs the string a NamePtr field points to. It must
// only be called while the original string is still alive; callers that
// violate this read whatever bytes now occupy that address.
func UnpackName(v uint64) string {
	if v == 0 {
		return ""
	}
	addr := uintptr(v & 0xFFFFFFFFFFFF)
	length := int(v >> 48)
	if addr == 0 || length == 0 {
		return ""
	}
	return unsafe.String((*byte)(unsafe.Pointer(addr)), length)
}
