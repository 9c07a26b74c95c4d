// Package pdftest builds minimal PDF documents for tests.
package pdftest

import (
	"strconv"
	"strings"
)

// TextPDF returns a PDF with one page per argument, each page drawing its
// string with a Helvetica Tj operator. An empty string yields a page
// without a text layer.
func TextPDF(pages ...string) []byte {
	contents := make([]string, len(pages))
	for i, text := range pages {
		if text == "" {
			continue
		}
		contents[i] = "BT\n/F1 12 Tf\n72 720 Td\n(" + escape(text) + ") Tj\nET"
	}
	return build(contents, false)
}

// ImageOnlyPDF returns a single-page PDF whose page only paints an image
// XObject, like a scanned document.
func ImageOnlyPDF() []byte {
	return build([]string{"q 100 0 0 100 72 692 cm /Im1 Do Q"}, true)
}

// EmptyPDF returns a structurally valid PDF whose page tree has no pages.
func EmptyPDF() []byte {
	return build(nil, false)
}

// Object layout: 1 catalog, 2 page tree, 3 font, 4 image, then a page and
// its content stream per page.
func build(contents []string, withImage bool) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	total := 4 + 2*len(contents)
	offsets := make([]int, total+1)

	kids := make([]string, len(contents))
	for i := range contents {
		kids[i] = strconv.Itoa(5+2*i) + " 0 R"
	}

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [" + strings.Join(kids, " ") + "] /Count " + strconv.Itoa(len(contents)) + " >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	img := "\xff\xd8\xff\xe0"
	offsets[4] = b.Len()
	b.WriteString("4 0 obj\n<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceRGB /BitsPerComponent 8 /Length " + strconv.Itoa(len(img)) + " >>\nstream\n" + img + "\nendstream\nendobj\n")

	resources := "<< /Font << /F1 3 0 R >> >>"
	if withImage {
		resources = "<< /XObject << /Im1 4 0 R >> >>"
	}

	for i, stream := range contents {
		pageObj, contentObj := 5+2*i, 6+2*i

		offsets[pageObj] = b.Len()
		b.WriteString(strconv.Itoa(pageObj) + " 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents " + strconv.Itoa(contentObj) + " 0 R /Resources " + resources + " >>\nendobj\n")

		offsets[contentObj] = b.Len()
		b.WriteString(strconv.Itoa(contentObj) + " 0 obj\n<< /Length " + strconv.Itoa(len(stream)) + " >>\nstream\n" + stream + "\nendstream\nendobj\n")
	}

	xref := b.Len()
	b.WriteString("xref\n0 " + strconv.Itoa(total+1) + "\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= total; i++ {
		b.WriteString(padOffset(offsets[i]) + " 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size " + strconv.Itoa(total+1) + " /Root 1 0 R >>\nstartxref\n")
	b.WriteString(strconv.Itoa(xref))
	b.WriteString("\n%%EOF\n")
	return []byte(b.String())
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}

func padOffset(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 10 {
		s = "0" + s
	}
	return s
}
