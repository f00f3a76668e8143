package target

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags an Address as one of the four target shapes in spec.md §3.
type Kind int

const (
	KindVariable Kind = iota
	KindAddress
	KindRange
	KindRegister
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "Variable"
	case KindAddress:
		return "Address"
	case KindRange:
		return "Range"
	case KindRegister:
		return "Register"
	default:
		return "Unknown"
	}
}

// Range is a half-open byte range [Lo, Hi).
type Range struct {
	Lo, Hi uint64
}

// Address is the tagged identifier for a location in the inferior
// (spec.md §3's "Target").
type Address struct {
	Kind Kind

	// KindVariable / KindRegister
	Name string
	// KindVariable: a byte offset applied after symbol resolution, e.g.
	// "vmax1+4" or "vmax1-0x10" (spec.md §4.4).
	Offset int64

	// KindAddress
	Addr uint64

	// KindRange
	Span Range
}

// RegisterLookup reports whether name is a known register (used to
// resolve the Variable/Register ambiguity per spec.md §3's textual
// grammar).
type RegisterLookup func(name string) bool

// Parse classifies text under spec.md §3's precedence: 0xNNNN -> Address;
// 0xAAAA:0xBBBB -> Range; else if isRegister(name) -> Register; else ->
// Variable, with an optional trailing ±N / ±0xN byte offset.
func Parse(text string, isRegister RegisterLookup) (Address, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Address{}, fmt.Errorf("target: empty target text")
	}

	if lo, hi, ok, err := parseRange(text); err != nil {
		return Address{}, err
	} else if ok {
		if hi < lo {
			return Address{}, fmt.Errorf("target: range %q has hi < lo", text)
		}
		return Address{Kind: KindRange, Span: Range{Lo: lo, Hi: hi}}, nil
	}

	if isHexLiteral(text) {
		addr, err := strconv.ParseUint(strings.TrimPrefix(text, "0x"), 16, 64)
		if err != nil {
			return Address{}, fmt.Errorf("target: invalid address %q: %w", text, err)
		}
		return Address{Kind: KindAddress, Addr: addr}, nil
	}

	name, offset, err := splitOffset(text)
	if err != nil {
		return Address{}, err
	}

	if isRegister != nil && isRegister(name) {
		if offset != 0 {
			return Address{}, fmt.Errorf("target: register %q may not carry a byte offset", name)
		}
		return Address{Kind: KindRegister, Name: name}, nil
	}

	return Address{Kind: KindVariable, Name: name, Offset: offset}, nil
}

func isHexLiteral(s string) bool {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	_, err := strconv.ParseUint(strings.TrimPrefix(s[2:], ""), 16, 64)
	return err == nil
}

func parseRange(s string) (lo, hi uint64, ok bool, err error) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return 0, 0, false, nil
	}
	loText, hiText := s[:idx], s[idx+1:]
	if !isHexLiteral(loText) || !isHexLiteral(hiText) {
		return 0, 0, false, nil
	}
	lo, err = strconv.ParseUint(strings.TrimPrefix(loText, "0x"), 16, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("target: invalid range lower bound %q: %w", loText, err)
	}
	hi, err = strconv.ParseUint(strings.TrimPrefix(hiText, "0x"), 16, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("target: invalid range upper bound %q: %w", hiText, err)
	}
	return lo, hi, true, nil
}

// splitOffset pulls a trailing "+N"/"-N"/"+0xN"/"-0xN" byte offset off a
// symbol name, per spec.md §4.4.
func splitOffset(s string) (name string, offset int64, err error) {
	for i := len(s) - 1; i > 0; i-- {
		if s[i] == '+' || s[i] == '-' {
			sign := int64(1)
			if s[i] == '-' {
				sign = -1
			}
			numText := s[i+1:]
			if numText == "" {
				break
			}
			var n uint64
			if strings.HasPrefix(numText, "0x") || strings.HasPrefix(numText, "0X") {
				n, err = strconv.ParseUint(numText[2:], 16, 64)
			} else {
				n, err = strconv.ParseUint(numText, 10, 64)
			}
			if err != nil {
				// not a numeric offset; treat the whole string as the name
				return s, 0, nil
			}
			return s[:i], sign * int64(n), nil
		}
	}
	return s, 0, nil
}
