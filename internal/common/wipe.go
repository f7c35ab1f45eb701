package common

// WipeByteArray zeroes b. Used for PINs read from the terminal.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
