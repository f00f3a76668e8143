package gdbmi

import "testing"

// TestGetIntByteOrder exercises spec.md §8 scenario 6's exact values.
func TestGetIntByteOrder(t *testing.T) {
	v, err := GetInt("abcdefab", true)
	if err != nil {
		t.Fatalf("GetInt little: %v", err)
	}
	if v != 0xABEFCDAB {
		t.Fatalf("GetInt little = %#x, want 0xABEFCDAB", v)
	}

	v, err = GetInt("abcdefab", false)
	if err != nil {
		t.Fatalf("GetInt big: %v", err)
	}
	if v != 0xABCDEFAB {
		t.Fatalf("GetInt big = %#x, want 0xABCDEFAB", v)
	}
}

func TestToGDBHexRoundTrips(t *testing.T) {
	hexStr := ToGDBHex(0x12345678, 4, true)
	if hexStr != "78563412" {
		t.Fatalf("ToGDBHex = %q, want 78563412", hexStr)
	}
	back, err := GetInt(hexStr, true)
	if err != nil {
		t.Fatalf("GetInt: %v", err)
	}
	if back != 0x12345678 {
		t.Fatalf("round trip = %#x, want 0x12345678", back)
	}
}

// TestParseMemoryChunks exercises spec.md §8 scenario 6's parse_memory
// example directly.
func TestParseMemoryChunks(t *testing.T) {
	chunks := []MemoryChunk{
		{Begin: 0x404010, End: 0x404014, Offset: 0, Contents: "ffffffff"},
	}
	words, warnings := ParseMemoryChunks(chunks, 4, 8, true)
	if len(warnings) == 0 {
		t.Fatal("expected a warning for the unfilled high half of the word")
	}
	if len(words) != 1 || words[0] != 0xFFFFFFFF {
		t.Fatalf("words = %v, want [0xFFFFFFFF]", words)
	}
}

func TestEncodeMemoryWriteRoundTrip(t *testing.T) {
	words := []uint64{0xAABBCCDD, 0x11223344}
	enc := EncodeMemoryWrite(words, 4, true)
	chunks := []MemoryChunk{{Begin: 0, End: 8, Offset: 0, Contents: enc}}
	decoded, _ := ParseMemoryChunks(chunks, 8, 4, true)
	if len(decoded) != 2 || decoded[0] != words[0] || decoded[1] != words[1] {
		t.Fatalf("decoded = %v, want %v", decoded, words)
	}
}
