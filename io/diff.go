package io

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// DiffWindow is the number of bytes shown around a difference.
const DiffWindow = 16

type Difference struct {
	Offset int

	// WindowStart is where Left and Right begin.
	WindowStart int
	Left        []byte
	Right       []byte
}

func (d Difference) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "first difference at offset 0x%x\n", d.Offset)
	fmt.Fprintf(&sb, "area of first difference (from 0x%x):\n", d.WindowStart)
	sb.WriteString(spew.Sdump(d.Left))
	sb.WriteString(spew.Sdump(d.Right))

	return sb.String()
}

// FirstDifference compares a and b from start on. It reports false when
// they agree there. Inputs of different lengths are an error.
func FirstDifference(a, b []byte, start int) (Difference, bool, error) {

	if len(a) != len(b) {
		return Difference{}, false, fmt.Errorf("sizes differ: 0x%x vs 0x%x", len(a), len(b))
	}

	if start < 0 || start > len(a) {
		return Difference{}, false, fmt.Errorf("start offset 0x%x outside 0x%x bytes", start, len(a))
	}

	for i := start; i < len(a); i++ {
		if a[i] == b[i] {
			continue
		}

		from := max(i-DiffWindow/2, 0)
		to := min(from+DiffWindow, len(a))

		return Difference{
			Offset:      i,
			WindowStart: from,
			Left:        a[from:to],
			Right:       b[from:to],
		}, true, nil
	}

	return Difference{}, false, nil
}
