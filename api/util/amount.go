package util

import (
	"strconv"
	"strings"
)

// FormatAmount renders a base-unit amount as a decimal string with the
// asset's number of decimals, trimming trailing fractional zeros.
func FormatAmount(amount uint64, decimals uint8) string {
	digits := strconv.FormatUint(amount, 10)
	if decimals == 0 {
		return digits
	}

	d := int(decimals)
	if len(digits) <= d {
		digits = strings.Repeat("0", d-len(digits)+1) + digits
	}

	whole, frac := digits[:len(digits)-d], strings.TrimRight(digits[len(digits)-d:], "0")
	if frac == "" {
		return whole
	}

	return whole + "." + frac
}
