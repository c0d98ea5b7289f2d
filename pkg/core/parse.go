package core

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseVec3 parses a comma separated "r,g,b" triple
func ParseVec3(s string) (Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Vec3{}, fmt.Errorf("expected 3 comma separated components, got %q", s)
	}

	var c [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Vec3{}, fmt.Errorf("component %d of %q: %w", i, s, err)
		}
		c[i] = f
	}
	return Vec3{c[0], c[1], c[2]}, nil
}
