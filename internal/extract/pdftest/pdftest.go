// Package pdftest builds small text PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

var vocabulary = []string{
	"engineer", "delivered", "services", "team", "customers", "platform",
	"reliable", "scaled", "designed", "reviewed", "mentored", "shipped",
}

// Words returns n filler words drawn from a fixed vocabulary.
func Words(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = vocabulary[i%len(vocabulary)]
	}
	return out
}

// WithWords renders a single-page PDF containing exactly n words.
func WithWords(n int) []byte {
	return FromWords(Words(n))
}

// FromWords renders words ten per line.
func FromWords(words []string) []byte {
	var lines []string
	for i := 0; i < len(words); i += 10 {
		end := i + 10
		if end > len(words) {
			end = len(words)
		}
		lines = append(lines, strings.Join(words[i:end], " "))
	}
	return FromLines(lines...)
}

// FromLines renders each line with Helvetica. Lines must not contain parentheses or backslashes.
func FromLines(lines ...string) []byte {
	var content bytes.Buffer
	content.WriteString("BT\n/F1 10 Tf\n12 TL\n72 760 Td\n")
	for _, line := range lines {
		fmt.Fprintf(&content, "(%s ) Tj T*\n", line)
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
