package gdbmi

import "reflect"

// Check performs spec.md §4.3's structural match: every key in expected
// must be present in actual, and
//
//   - a nil expected value matches anything,
//   - two maps recurse,
//   - an expected list of maps requires actual[key] to satisfy Check
//     against EVERY map in that list (conjunction, not disjunction —
//     ported from original_source/fit/interfaces/gdb/controller.py's
//     check(), which returns false the first element fails rather than
//     trying alternatives),
//   - otherwise the two values must compare equal.
func Check(actual, expected map[string]any) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok {
			return false
		}
		if want == nil {
			continue
		}
		switch w := want.(type) {
		case map[string]any:
			gm, ok := got.(map[string]any)
			if !ok || !Check(gm, w) {
				return false
			}
		case []any:
			for _, elem := range w {
				if em, ok := elem.(map[string]any); ok {
					gm, ok2 := got.(map[string]any)
					if !ok2 || !Check(gm, em) {
						return false
					}
				}
			}
		default:
			if !scalarEqual(got, want) {
				return false
			}
		}
	}
	return true
}

func scalarEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	as, aok := stringable(a)
	bs, bok := stringable(b)
	return aok && bok && as == bs
}

func stringable(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AnyMatch reports whether actual satisfies at least one alternative in
// wait (the OR over a wait_for list — matches
// original_source/fit/interfaces/gdb/controller.py's await_response,
// where "for w in wait: if check(msg, w)" picks the first alternative
// that matches).
func AnyMatch(actual map[string]any, wait []map[string]any) bool {
	for _, w := range wait {
		if Check(actual, w) {
			return true
		}
	}
	return false
}
