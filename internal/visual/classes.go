package visual

import "strconv"

// Classes maps detector class IDs to display names
type Classes []string

// Name returns the display name of a class, or "class N" when unknown
func (c Classes) Name(id int) string {
	if id >= 0 && id < len(c) && c[id] != "" {
		return c[id]
	}
	return "class " + strconv.Itoa(id)
}
