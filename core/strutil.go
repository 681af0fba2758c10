package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	var buf [20]byte
	pos := len(buf)
	negative := n < 0
	if negative {
		n = -n
	}
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	if negative {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

const hexDigits = "0123456789abcdef"

// hexBytes renders at most max bytes of b as space separated hex, with a
// trailing ".." when b was cut.
func hexBytes(b []byte, max int) string {
	n := len(b)
	if n > max {
		n = max
	}
	out := make([]byte, 0, n*3+2)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, hexDigits[b[i]>>4], hexDigits[b[i]&0x0F])
	}
	if n < len(b) {
		out = append(out, '.', '.')
	}
	return string(out)
}
