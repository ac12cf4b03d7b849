package page

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// a cases.Caser is not safe for concurrent use, so each call builds its own
func fold(s string) string { return cases.Fold().String(s) }

// CompareText orders two nullable strings case-insensitively
// nulls sort first ascending and last descending; equal folds fall back to
// a byte compare so the order is total
func CompareText(a, b *string, o Order) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1 * sign(o)
	case b == nil:
		return 1 * sign(o)
	}
	c := strings.Compare(fold(*a), fold(*b))
	if c == 0 {
		c = strings.Compare(*a, *b)
	}
	return c * sign(o)
}

// CompareNumber orders two nullable numbers with the same null placement as CompareText
func CompareNumber(a, b *float64, o Order) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1 * sign(o)
	case b == nil:
		return 1 * sign(o)
	}
	c := 0
	switch {
	case *a < *b:
		c = -1
	case *a > *b:
		c = 1
	}
	return c * sign(o)
}

// CompareKey orders partition keys: numeric when both parse as integers,
// such as time bucket keys, otherwise as text
func CompareKey(a, b *string, o Order) int {
	if a != nil && b != nil {
		x, errA := strconv.ParseInt(*a, 10, 64)
		y, errB := strconv.ParseInt(*b, 10, 64)
		if errA == nil && errB == nil {
			switch {
			case x < y:
				return -1 * sign(o)
			case x > y:
				return 1 * sign(o)
			}
			return 0
		}
	}
	return CompareText(a, b, o)
}

func sign(o Order) int {
	if o == Desc {
		return -1
	}
	return 1
}
