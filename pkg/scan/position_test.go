package scan

import "testing"

func TestPosition(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		offset   int
		line     int
		col      int
	}{
		{"offset zero", "abc", 0, 1, 1},
		{"single line", "abcdef", 3, 1, 4},
		{"right after newline", "a\nb", 2, 2, 1},
		{"newline itself", "a\nb", 1, 1, 2},
		{"second line middle", "ab\ncdef", 5, 2, 3},
		{"multiple newlines", "\n\n\nx", 3, 4, 1},
		{"offset past end clamps", "ab", 10, 1, 3},
		{"empty source", "", 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, col := Position([]byte(tt.source), tt.offset)
			if line != tt.line || col != tt.col {
				t.Errorf("Position(%q, %d) = (%d, %d), want (%d, %d)",
					tt.source, tt.offset, line, col, tt.line, tt.col)
			}
		})
	}
}

func TestPositionColumnEqualsOffsetPlusOne(t *testing.T) {
	// For all-printable single-line text, column = offset + 1.
	source := []byte("const hello = 1;")
	for offset := 0; offset <= len(source); offset++ {
		line, col := Position(source, offset)
		if line != 1 || col != offset+1 {
			t.Fatalf("Position(single line, %d) = (%d, %d)", offset, line, col)
		}
	}
}
