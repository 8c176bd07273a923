package scan

// Position converts a byte offset into a 1-based (line, column) pair
// by scanning the text from the start. A newline increments the line
// and resets the column; every other byte advances the column. Offsets
// past the end of the text clamp to the final position.
func Position(source []byte, offset int) (line, col int) {
	if offset > len(source) {
		offset = len(source)
	}
	line, col = 1, 1
	for i := 0; i < offset; i++ {
		if source[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
