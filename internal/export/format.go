package export

import (
	"strconv"
	"strings"

	"bilardo/internal/core"
)

// FormatLira renders an amount the Turkish way: "1.234,50 ₺".
func FormatLira(m core.Money) string {
	c := m.Cents
	var b strings.Builder
	if c < 0 {
		b.WriteByte('-')
		c = -c
	}
	digits := strconv.FormatInt(c/100, 10)
	for i := 0; i < len(digits); i++ {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteByte(digits[i])
	}
	frac := c % 100
	b.WriteByte(',')
	b.WriteByte(byte('0' + frac/10))
	b.WriteByte(byte('0' + frac%10))
	b.WriteString(" ₺")
	return b.String()
}
