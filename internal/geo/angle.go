package geo

import (
	"fmt"
	"regexp"
	"strconv"
)

// dmsTokens matches numeric runs and hemisphere letters, so that both
// "37 46 30.00 N" and exiftool's `37 deg 46' 30.00" N` yield the same tokens.
var dmsTokens = regexp.MustCompile(`[0-9.]+|[NSEW]`)

// ToDecimalDegrees converts a degrees/minutes/seconds string with a trailing
// hemisphere letter into signed decimal degrees. Southern and western
// hemispheres are negative.
func ToDecimalDegrees(dms string) (float64, error) {
	tokens := dmsTokens.FindAllString(dms, -1)
	if len(tokens) != 4 {
		return 0, fmt.Errorf("%w: expected degrees, minutes, seconds and direction in %q, got %d tokens", ErrParse, dms, len(tokens))
	}

	var parts [3]float64
	for i, token := range tokens[:3] {
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid numeric token %q in %q", ErrParse, token, dms)
		}
		parts[i] = v
	}

	dd := parts[0] + parts[1]/60 + parts[2]/3600

	switch tokens[3] {
	case "N", "E":
	case "S", "W":
		dd = -dd
	default:
		return 0, fmt.Errorf("%w: missing hemisphere letter in %q", ErrParse, dms)
	}

	return dd, nil
}

// Hemisphere returns the hemisphere letter of a DMS string, i.e. its last token.
func Hemisphere(dms string) (string, error) {
	tokens := dmsTokens.FindAllString(dms, -1)
	if len(tokens) == 0 {
		return "", fmt.Errorf("%w: no hemisphere letter in %q", ErrParse, dms)
	}

	last := tokens[len(tokens)-1]
	switch last {
	case "N", "S", "E", "W":
		return last, nil
	}
	return "", fmt.Errorf("%w: no hemisphere letter in %q", ErrParse, dms)
}
