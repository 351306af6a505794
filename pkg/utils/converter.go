package utils

import (
	"encoding/binary"
	"unsafe"
)

// StringToBytes converts string to a byte slice without any memory allocation.
// The result must not be mutated.
func StringToBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// BytesToString converts byte slice to a string without any memory allocation.
// The input must not be mutated after the call.
func BytesToString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// Uint32ToBytesByBigEndian converts uint32 to a big-endian byte slice.
func Uint32ToBytesByBigEndian(n uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, n)
	return b
}

// BytesToUint32ByBigEndian converts a big-endian byte slice to uint32.
func BytesToUint32ByBigEndian(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// Uint16ToBytesByBigEndian converts uint16 to a big-endian byte slice.
func Uint16ToBytesByBigEndian(n uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, n)
	return b
}

// BytesToUint16ByBigEndian converts a big-endian byte slice to uint16.
func BytesToUint16ByBigEndian(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}
