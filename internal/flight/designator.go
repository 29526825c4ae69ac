package flight

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParse is returned for strings that are not carrier letters followed by
// a flight number.
var ErrParse = errors.New("flight: malformed designator")

// Carrier codes may start with a digit (e.g. 4U); the number is the trailing
// run of digits.
var designatorPattern = regexp.MustCompile(`^([0-9]*[A-Za-z]+)\s*([0-9]+)$`)

// ParseDesignator splits "LH1234" into {LH 1234}.
func ParseDesignator(s string) (Designator, error) {
	m := designatorPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Designator{}, fmt.Errorf("%w: %q", ErrParse, s)
	}
	return Designator{Carrier: strings.ToUpper(m[1]), Number: m[2]}, nil
}
