package mqtt

import (
	"fmt"
	"strings"
)

// Wildcards defined by MQTT 3.1.1 section 4.7.
const (
	wildcardSingle = "+"
	wildcardMulti  = "#"
	levelSeparator = "/"
)

// ValidateTopic checks a concrete publish topic: non-empty and free of wildcards.
func ValidateTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTopic)
	}
	if strings.ContainsAny(topic, wildcardSingle+wildcardMulti) {
		return fmt.Errorf("%w: %q contains a wildcard", ErrInvalidTopic, topic)
	}
	return nil
}

// ValidateFilter checks a subscription filter.
//
// "+" must occupy a whole level; "#" must occupy the whole last level.
func ValidateFilter(filter string) error {
	if filter == "" {
		return fmt.Errorf("%w: empty", ErrInvalidFilter)
	}

	levels := strings.Split(filter, levelSeparator)
	for i, level := range levels {
		switch {
		case level == wildcardMulti:
			if i != len(levels)-1 {
				return fmt.Errorf("%w: %q has '#' before the last level", ErrInvalidFilter, filter)
			}
		case level == wildcardSingle:
		case strings.ContainsAny(level, wildcardSingle+wildcardMulti):
			return fmt.Errorf("%w: %q mixes a wildcard with text in one level", ErrInvalidFilter, filter)
		}
	}
	return nil
}

// Match reports whether a concrete topic matches a subscription filter.
//
// Examples:
//
//	Match("factory/#", "factory/line1/velocity")        // true
//	Match("factory/+/velocity", "factory/line2/velocity") // true
//	Match("factory/line1/#", "factory/line2/velocity")  // false
//
// Topics starting with '$' are not matched by filters starting with a
// wildcard.
func Match(filter, topic string) bool {
	if filter == "" || topic == "" {
		return false
	}
	if strings.HasPrefix(topic, "$") && (strings.HasPrefix(filter, wildcardSingle) || strings.HasPrefix(filter, wildcardMulti)) {
		return false
	}

	f := strings.Split(filter, levelSeparator)
	t := strings.Split(topic, levelSeparator)

	for i, level := range f {
		if level == wildcardMulti {
			return true
		}
		if i >= len(t) {
			return false
		}
		if level != wildcardSingle && level != t[i] {
			return false
		}
	}
	return len(f) == len(t)
}

// Covers reports whether every topic matched by inner is also matched by outer.
//
// Covers("factory/#", "factory/line2/#") is true; the reverse is false.
func Covers(outer, inner string) bool {
	if outer == "" || inner == "" {
		return false
	}

	o := strings.Split(outer, levelSeparator)
	in := strings.Split(inner, levelSeparator)

	for i, level := range o {
		if level == wildcardMulti {
			return true
		}
		if i >= len(in) {
			return false
		}
		switch {
		case in[i] == wildcardMulti:
			// inner matches arbitrarily deep topics; outer does not.
			return false
		case level == wildcardSingle:
		case in[i] == wildcardSingle:
			return false
		case level != in[i]:
			return false
		}
	}
	return len(o) == len(in)
}

// CoveredByAny reports whether some filter in outers covers inner.
func CoveredByAny(outers []string, inner string) bool {
	for _, o := range outers {
		if Covers(o, inner) {
			return true
		}
	}
	return false
}
