package invoice

import (
	"fmt"
	"regexp"
	"strconv"
)

var numberPattern = regexp.MustCompile(`^INV-(\d+)$`)

// NextNumber derives the next invoice number from the numbers already in the
// store: the numeric suffix of the highest INV-<digits> entry plus one, zero
// padded to at least three digits. With nothing stored it returns INV-001.
// Gaps left by deletion are not tracked; the scan always starts from the
// current maximum.
func NextNumber(existing []string) string {
	highest := 0
	for _, number := range existing {
		m := numberPattern.FindStringSubmatch(number)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("INV-%03d", highest+1)
}
