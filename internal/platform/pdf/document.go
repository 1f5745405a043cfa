package pdf

import (
	"bytes"
	"fmt"
)

const header = "%PDF-1.4\n"

// document collects indirect objects numbered by append order (1-based).
type document struct {
	objects [][]byte
}

// reserve allocates an object number whose body is set later.
func (d *document) reserve() int {
	d.objects = append(d.objects, nil)
	return len(d.objects)
}

func (d *document) add(body []byte) int {
	d.objects = append(d.objects, body)
	return len(d.objects)
}

func (d *document) set(n int, body []byte) {
	d.objects[n-1] = body
}

// bytes serializes header, objects, xref table and trailer.
// Each xref offset is the buffer length at the moment its object starts.
func (d *document) bytes(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString(header)

	offsets := make([]int, len(d.objects))
	for i, body := range d.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		buf.Write(body)
		buf.WriteString("\nendobj\n")
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(d.objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}

	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\n", len(d.objects)+1, root)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF", xrefStart)

	return buf.Bytes()
}
