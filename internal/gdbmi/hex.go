package gdbmi

import (
	"encoding/hex"
	"fmt"
)

// GetInt decodes a hex-encoded byte string into an integer under the
// given byte order, matching
// original_source/fit/interfaces/gdb/gdb_injector.py's get_int. Ported
// directly; exercised by spec.md §8 scenario 6's exact test values.
func GetInt(hexStr string, littleEndian bool) (uint64, error) {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return 0, fmt.Errorf("gdbmi: invalid hex %q: %w", hexStr, err)
	}
	if littleEndian {
		reverse(b)
	}
	var v uint64
	for _, by := range b {
		v = v<<8 | uint64(by)
	}
	return v, nil
}

// ToGDBHex encodes value as a size-byte hex string under the given byte
// order, matching
// original_source/fit/interfaces/gdb/gdb_injector.py's to_gdb_hex. The
// adapter's own memory writes build their payload with EncodeMemoryWrite
// and register writes send a console "set $reg=0x..." command, so neither
// goes through this helper.
func ToGDBHex(value uint64, size int, littleEndian bool) string {
	b := make([]byte, size)
	for i := 0; i < size; i++ {
		b[i] = byte(value >> (8 * uint(size-1-i)))
	}
	if littleEndian {
		reverse(b)
	}
	return hex.EncodeToString(b)
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
