// Package target implements the Target Surface (C4): typed address
// parsing, word-sized read/write views over the Debugger Adapter, and
// WordList elementwise bitwise operators.
package target

import "fmt"

// Permissions is the memory-mapping permission bitmask ported from
// original_source/fit/mapping.py.
type Permissions uint8

const (
	PermRead    Permissions = 1 << 0
	PermWrite   Permissions = 1 << 1
	PermExec    Permissions = 1 << 2
	PermPrivate Permissions = 1 << 3
)

func (p Permissions) IsReadable() bool   { return p&PermRead != 0 }
func (p Permissions) IsWritable() bool   { return p&PermWrite != 0 }
func (p Permissions) IsExecutable() bool { return p&PermExec != 0 }
func (p Permissions) IsPrivate() bool    { return p&PermPrivate != 0 }

func (p Permissions) String() string {
	s := []byte("----")
	if p.IsReadable() {
		s[0] = 'r'
	}
	if p.IsWritable() {
		s[1] = 'w'
	}
	if p.IsExecutable() {
		s[2] = 'x'
	}
	if p.IsPrivate() {
		s[3] = 'p'
	}
	return string(s)
}

// Mapping is one row of "info proc mappings": a contiguous address range
// with its permissions and backing file name (if any).
type Mapping struct {
	Start, End uint64
	Perms      Permissions
	Name       string
}

// AsRange returns the mapping's address span as a Range target.
func (m Mapping) AsRange() Range { return Range{Lo: m.Start, Hi: m.End} }

func (m Mapping) String() string {
	return fmt.Sprintf("0x%x-0x%x %s %s", m.Start, m.End, m.Perms, m.Name)
}
