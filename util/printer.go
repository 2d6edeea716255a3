// Package util holds small formatting helpers shared across this
// repo's packages and command-line tools.
package util

import (
	"fmt"
	"strings"
)

// DumpByteSlice renders b as a 16-bytes-per-row hex dump with an
// 8-digit hex offset prefix and an ASCII gutter, similar to
// `hexdump -C` without the gutter's bars, for the
// simplefsutil hexdump subcommand.
func DumpByteSlice(b []byte) string {
	const bytesPerRow = 16

	var out strings.Builder
	for offset := 0; offset < len(b); offset += bytesPerRow {
		end := offset + bytesPerRow
		if end > len(b) {
			end = len(b)
		}
		row := b[offset:end]

		fmt.Fprintf(&out, "%08x  ", offset)
		for i := 0; i < bytesPerRow; i++ {
			if i < len(row) {
				fmt.Fprintf(&out, "%02x ", row[i])
			} else {
				out.WriteString("   ")
			}
			if i == 7 {
				out.WriteByte(' ')
			}
		}
		out.WriteByte(' ')
		for _, c := range row {
			if c < 32 || c > 126 {
				out.WriteByte('.')
			} else {
				out.WriteByte(c)
			}
		}
		out.WriteByte('\n')
	}
	return out.String()
}
