// Package pdf writes minimal single-font, text-only PDF documents.
//
// The output uses the built-in Helvetica face (no embedding) with
// WinAnsiEncoding, one content stream per page, and a classic xref table.
package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Layout settings in PDF points.
type Options struct {
	FontSize        float64
	Leading         float64
	MarginLeft      float64
	MarginTop       float64
	PageWidth       float64
	PageHeight      float64
	MaxCharsPerLine int
}

func DefaultOptions() Options {
	return Options{
		FontSize:        11,
		Leading:         14,
		MarginLeft:      50,
		MarginTop:       40,
		PageWidth:       595,
		PageHeight:      842,
		MaxCharsPerLine: 100,
	}
}

// LinesPerPage is floor((pageHeight - 2*marginTop) / leading), at least 1.
func (o Options) LinesPerPage() int {
	n := int((o.PageHeight - 2*o.MarginTop) / o.Leading)
	if n < 1 {
		return 1
	}
	return n
}

// Wrap greedily packs the words of line into chunks of at most max runes.
//
// A line that already fits is returned unchanged so padded table columns
// keep their alignment. Words longer than max are hard-split at rune
// boundaries. A line with no words wraps to a single blank " ".
func Wrap(line string, max int) []string {
	if max < 1 {
		max = 1
	}
	if utf8.RuneCountInString(line) <= max {
		if strings.TrimSpace(line) == "" {
			return []string{" "}
		}
		return []string{line}
	}

	var out []string
	current := ""
	for _, word := range strings.Fields(line) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if utf8.RuneCountInString(candidate) <= max {
			current = candidate
			continue
		}

		if current != "" {
			out = append(out, current)
		}
		if utf8.RuneCountInString(word) > max {
			runes := []rune(word)
			for i := 0; i < len(runes); i += max {
				end := min(i+max, len(runes))
				out = append(out, string(runes[i:end]))
			}
			current = ""
		} else {
			current = word
		}
	}
	if current != "" {
		out = append(out, current)
	}
	if len(out) == 0 {
		return []string{" "}
	}
	return out
}

// Paginate slices lines into consecutive chunks of perPage lines.
// It always returns at least one page; an empty input yields one page
// holding a single blank line.
func Paginate(lines []string, perPage int) [][]string {
	if perPage < 1 {
		perPage = 1
	}
	if len(lines) == 0 {
		return [][]string{{" "}}
	}

	pages := make([][]string, 0, (len(lines)+perPage-1)/perPage)
	for i := 0; i < len(lines); i += perPage {
		end := min(i+perPage, len(lines))
		pages = append(pages, lines[i:end])
	}
	return pages
}

// Render wraps, paginates and serializes lines into a PDF byte stream.
func Render(lines []string, opts Options) []byte {
	wrapped := make([]string, 0, len(lines))
	for _, l := range lines {
		wrapped = append(wrapped, Wrap(l, opts.MaxCharsPerLine)...)
	}
	pages := Paginate(wrapped, opts.LinesPerPage())

	doc := &document{}
	catalog := doc.reserve()
	pageTree := doc.reserve()
	font := doc.add([]byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"))

	kids := make([]int, 0, len(pages))
	startY := opts.PageHeight - opts.MarginTop - opts.FontSize
	for _, pageLines := range pages {
		content := contentStream(pageLines, opts, startY)

		var obj bytes.Buffer
		fmt.Fprintf(&obj, "<< /Length %d >>\nstream\n", len(content))
		obj.Write(content)
		obj.WriteString("\nendstream")
		contents := doc.add(obj.Bytes())

		page := doc.add([]byte(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %s %s] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			pageTree, num(opts.PageWidth), num(opts.PageHeight), font, contents,
		)))
		kids = append(kids, page)
	}

	refs := make([]string, len(kids))
	for i, k := range kids {
		refs[i] = fmt.Sprintf("%d 0 R", k)
	}
	doc.set(pageTree, []byte(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(refs, " "), len(kids))))
	doc.set(catalog, []byte(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pageTree)))

	return doc.bytes(catalog)
}

// contentStream emits the text operators for one page.
func contentStream(lines []string, opts Options, startY float64) []byte {
	var b bytes.Buffer
	b.WriteString("BT\n")
	fmt.Fprintf(&b, "/F1 %s Tf\n", num(opts.FontSize))
	fmt.Fprintf(&b, "%s TL\n", num(opts.Leading))
	fmt.Fprintf(&b, "1 0 0 1 %s %s Tm\n", num(opts.MarginLeft), num(startY))
	for i, l := range lines {
		if i > 0 {
			b.WriteString("T*\n")
		}
		b.WriteByte('(')
		b.Write(encode(escape(l)))
		b.WriteString(") Tj\n")
	}
	b.WriteString("ET")
	return b.Bytes()
}

// escape protects the three characters reserved inside PDF literal strings.
func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`).Replace(s)
}

// encode maps text to WinAnsi bytes; runes outside the code page become '?'.
func encode(s string) []byte {
	enc := charmap.Windows1252
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := enc.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		out = append(out, '?')
	}
	return out
}

// num formats a point value without trailing zeros ("11", "14.5").
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
