// Package htmlreport extracts trip fields from vehicle-tracker HTML reports.
package htmlreport

import (
	"bytes"
	"fmt"
	"freight-settlement-service/internal/domain"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Folded header labels, as produced by foldLabel.
const (
	labelDevice   = "dispositivo"
	labelStart    = "inicio da rota"
	labelEnd      = "final da rota"
	labelDistance = "distancia do percurso"
	labelOdometer = "odometro"
)

var (
	brTimestamp = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})\s+(\d{2}:\d{2}:\d{2})$`)
	leadingNum  = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)`)
)

// Parser implements ports.ReportParser for the tracker's "route report" page.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseReport reads the header table of a report.
//
// Values are taken from <th>Label:</th><td>value</td> pairs; labels match
// regardless of case and accents. The plate is the second "//" segment of
// the device label. A missing plate, start or end yields
// domain.ErrIncompleteReport.
func (p *Parser) ParseReport(raw []byte) (domain.TripFields, error) {
	fields := extractFields(decodeBody(raw))

	device := fields[labelDevice]
	plate := device
	if parts := strings.Split(device, "//"); len(parts) > 1 {
		plate = parts[1]
	}

	out := domain.TripFields{
		Plate:          domain.NormalizePlate(plate),
		DeviceLabel:    device,
		DistanceKm:     ParseNumber(fields[labelDistance]),
		StartTimestamp: ToISOTimestamp(fields[labelStart]),
		EndTimestamp:   ToISOTimestamp(fields[labelEnd]),
	}
	if odo, ok := fields[labelOdometer]; ok && strings.TrimSpace(odo) != "" {
		v := ParseNumber(odo)
		out.OdometerKm = &v
	}

	var missing []string
	if out.Plate == "" {
		missing = append(missing, "plate")
	}
	if out.StartTimestamp == "" {
		missing = append(missing, "start")
	}
	if out.EndTimestamp == "" {
		missing = append(missing, "end")
	}
	if len(missing) > 0 {
		return domain.TripFields{}, fmt.Errorf("%w: missing %s", domain.ErrIncompleteReport, strings.Join(missing, ", "))
	}

	return out, nil
}

// decodeBody treats non-UTF-8 input as Windows-1252, the tracker's legacy export charset.
func decodeBody(raw []byte) []byte {
	if utf8.Valid(raw) {
		return raw
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return raw
	}
	return out
}

// extractFields walks the token stream pairing each <th> with an immediately
// following <td>. The first occurrence of a label wins.
func extractFields(body []byte) map[string]string {
	z := html.NewTokenizer(bytes.NewReader(body))
	fields := make(map[string]string)

	var (
		inTH, inTD bool
		text       strings.Builder
		label      string
	)

	for {
		switch z.Next() {
		case html.ErrorToken:
			return fields

		case html.StartTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Th:
				inTH, inTD, label = true, false, ""
				text.Reset()
			case atom.Td:
				if label != "" {
					inTD = true
					text.Reset()
				}
			default:
				if !inTH && !inTD {
					label = ""
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Th:
				if inTH {
					label = foldLabel(text.String())
					inTH = false
				}
			case atom.Td:
				if inTD {
					if _, seen := fields[label]; !seen {
						fields[label] = strings.TrimSpace(text.String())
					}
					inTD, label = false, ""
				}
			}

		case html.TextToken:
			if inTH || inTD {
				text.Write(z.Text())
			}
		}
	}
}

// foldLabel lower-cases, strips accents and the trailing colon.
func foldLabel(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(strings.Join(strings.Fields(folded), " "))
	return strings.TrimSpace(strings.TrimSuffix(folded, ":"))
}

// ToISOTimestamp rewrites "DD-MM-YYYY HH:MM:SS" to "YYYY-MM-DD HH:MM:SS".
// Anything else is returned trimmed and unchanged.
func ToISOTimestamp(s string) string {
	s = strings.TrimSpace(s)
	m := brTimestamp.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return m[3] + "-" + m[2] + "-" + m[1] + " " + m[4]
}

// ParseNumber reads a number that may carry a unit and Brazilian separators,
// e.g. "1.234,5 km". When a comma is present it is the decimal separator and
// dots are thousands separators. Unparseable input yields 0.
func ParseNumber(s string) float64 {
	t := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, s)

	if strings.Contains(t, ",") {
		t = strings.ReplaceAll(t, ".", "")
		t = strings.Replace(t, ",", ".", 1)
	}

	m := leadingNum.FindString(t)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}
