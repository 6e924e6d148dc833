package render

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
)

const (
	coreFont    = "Helvetica"
	embeddedTTF = "ReportSans"

	pageMargin   = 10.0
	bottomMargin = 14.0
	lineHeight   = 5.0
	cellPadding  = 1.0
	bodySize     = 8.0
)

// DocumentRenderer writes a paginated PDF. Text uses the resolved TrueType
// font when one was found and a built-in core font otherwise.
type DocumentRenderer struct {
	font *Font
	// Compress toggles stream compression of the output.
	Compress bool
}

// NewDocumentRenderer creates a renderer using font, which may be nil.
func NewDocumentRenderer(font *Font) *DocumentRenderer {
	return &DocumentRenderer{font: font, Compress: true}
}

func (*DocumentRenderer) Format() Format      { return FormatDocument }
func (*DocumentRenderer) ContentType() string { return "application/pdf" }

// FontName reports the font family the renderer embeds.
func (r *DocumentRenderer) FontName() string {
	if r.font == nil {
		return coreFont
	}
	return r.font.Name
}

func (r *DocumentRenderer) Render(in Input) ([]byte, error) {
	out, err := r.render(in, r.font)
	if err != nil && r.font != nil {
		// The font parsed but fpdf could not embed it; retry with the core font.
		return r.render(in, nil)
	}
	return out, err
}

// pdfWriter lays out text folded by text and writes it through out. Core
// font text is folded to runes whose values are cp1252 code points so width
// lookups stay inside the font's table; out turns those into bytes.
type pdfWriter struct {
	pdf    *fpdf.Fpdf
	family string
	text   func(string) string
	out    func(string) string
}

func (r *DocumentRenderer) render(in Input, font *Font) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, bottomMargin)

	w := &pdfWriter{pdf: pdf, family: coreFont, text: coreText(pdf), out: codePageBytes}
	if font != nil {
		pdf.AddUTF8FontFromBytes(embeddedTTF, "", font.Data)
		pdf.AddUTF8FontFromBytes(embeddedTTF, "B", font.Data)
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("embed font %s: %w", font.Path, err)
		}
		w.family = embeddedTTF
		w.text = unicodeText
		w.out = func(s string) string { return s }
	}

	head := titleBlock(in)
	pdf.SetTitle(head[0], true)
	pdf.SetCreator("plant-health reports", true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-bottomMargin + 4)
		pdf.SetFont(w.family, "", 7)
		pdf.CellFormat(0, 4, w.print(fmt.Sprintf("Page %d/{nb}", pdf.PageNo())), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	w.heading(head[0], 16)
	pdf.SetFont(w.family, "", 10)
	for _, line := range head[1:] {
		pdf.CellFormat(0, 6, w.print(line), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, w.print("Generated at: "+formatTime(in.Report.GeneratedAt, in.location())), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	layout := LayoutFor(in.Payload.Kind)
	loc := in.location()

	if layout.DiagnosisDetail {
		w.section(TitleDiagnostics)
		w.table(diagnosisTable(in.Details.Diagnoses, loc))
	}
	if layout.TaskDetail {
		w.section(TitleTasks)
		w.table(taskTable(in.Details.RecommendationTasks, loc).project(
			colRecID, colRecDate, colDisease, colAgronomist, colPlan,
			colTask, colOperator, colTaskStatus, colDeadline, colCompleted, colOverdue,
		))
	}

	w.section(TitleAnalytics)
	for _, t := range analyticsTables(in.Payload, layout.Analytics) {
		w.subheading(t.Title)
		w.table(t)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *pdfWriter) print(s string) string {
	return w.out(w.text(s))
}

func (w *pdfWriter) ensureSpace(h float64) bool {
	_, pageH := w.pdf.GetPageSize()
	if w.pdf.GetY()+h > pageH-bottomMargin {
		w.pdf.AddPage()
		return true
	}
	return false
}

func (w *pdfWriter) heading(title string, size float64) {
	w.pdf.SetFont(w.family, "B", size)
	w.pdf.CellFormat(0, size/2+2, w.print(title), "", 1, "L", false, 0, "")
}

func (w *pdfWriter) section(title string) {
	w.ensureSpace(20)
	w.pdf.Ln(2)
	w.heading(title, 13)
}

func (w *pdfWriter) subheading(title string) {
	w.ensureSpace(16)
	w.pdf.Ln(1)
	w.heading(title, 10)
}

func (w *pdfWriter) columnWidths(t table) []float64 {
	pageW, _ := w.pdf.GetPageSize()
	avail := pageW - 2*pageMargin

	weights := make([]float64, len(t.Header))
	var total float64
	for i, h := range t.Header {
		n := utf8.RuneCountInString(h)
		for _, row := range t.Rows {
			if m := utf8.RuneCountInString(cellText(row[i])); m > n {
				n = m
			}
		}
		if n < 6 {
			n = 6
		}
		if n > 40 {
			n = 40
		}
		weights[i] = float64(n)
		total += weights[i]
	}
	widths := make([]float64, len(weights))
	for i, wt := range weights {
		widths[i] = avail * wt / total
	}
	return widths
}

// table draws a bordered grid. Cells wrap instead of truncating and rows
// that do not fit move to the next page together with a repeated header.
func (w *pdfWriter) table(t table) {
	if len(t.Header) == 0 {
		return
	}
	widths := w.columnWidths(t)

	header := make([]string, len(t.Header))
	for i, h := range t.Header {
		header[i] = w.text(h)
	}

	w.pdf.SetFont(w.family, "B", bodySize)
	w.ensureSpace(lineHeight * 3)
	w.row(header, widths, true)

	if len(t.Rows) == 0 {
		w.pdf.SetFont(w.family, "", bodySize)
		w.pdf.CellFormat(0, lineHeight+1, w.print("No data for the period"), "", 1, "L", false, 0, "")
		return
	}

	for _, values := range t.Rows {
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = w.text(cellText(v))
		}
		w.pdf.SetFont(w.family, "", bodySize)
		h := w.rowHeight(cells, widths)
		if w.ensureSpace(h) {
			w.pdf.SetFont(w.family, "B", bodySize)
			w.row(header, widths, true)
			w.pdf.SetFont(w.family, "", bodySize)
		}
		w.row(cells, widths, false)
	}
}

func (w *pdfWriter) maxLines() int {
	_, pageH := w.pdf.GetPageSize()
	return int((pageH - pageMargin - bottomMargin - 2*lineHeight) / lineHeight)
}

func (w *pdfWriter) wrap(text string, width float64) []string {
	lines := w.pdf.SplitText(text, width-2*cellPadding)
	if len(lines) == 0 {
		lines = []string{""}
	}
	if limit := w.maxLines(); len(lines) > limit {
		lines = append(lines[:limit-1], lines[limit-1]+" ...")
	}
	return lines
}

func (w *pdfWriter) rowHeight(cells []string, widths []float64) float64 {
	n := 1
	for i, c := range cells {
		if lines := len(w.wrap(c, widths[i])); lines > n {
			n = lines
		}
	}
	return float64(n)*lineHeight + cellPadding
}

func (w *pdfWriter) row(cells []string, widths []float64, header bool) {
	h := w.rowHeight(cells, widths)
	x0, y := w.pdf.GetXY()
	x := x0
	if header {
		w.pdf.SetFillColor(220, 235, 220)
	}
	for i, c := range cells {
		style := "D"
		if header {
			style = "FD"
		}
		w.pdf.Rect(x, y, widths[i], h, style)
		w.pdf.SetXY(x+cellPadding, y+cellPadding/2)
		for _, line := range w.wrap(c, widths[i]) {
			w.pdf.CellFormat(widths[i]-2*cellPadding, lineHeight, w.out(line), "", 2, "L", false, 0, "")
		}
		x += widths[i]
		w.pdf.SetXY(x, y)
	}
	w.pdf.SetXY(x0, y+h)
}

// coreText folds text to the cp1252 code page the core fonts encode. Each
// rune of the result is a code point below 256; runes the page lacks become
// '?'.
func coreText(pdf *fpdf.Fpdf) func(string) string {
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	return func(s string) string {
		var b strings.Builder
		for _, r := range s {
			switch {
			case r == '\n' || r == '\t':
				b.WriteRune(' ')
			case r < 32 || r == 127:
				b.WriteByte('?')
			case r < 127:
				b.WriteRune(r)
			default:
				if enc := translate(string(r)); len(enc) == 1 && enc[0] >= 0x80 {
					b.WriteRune(rune(enc[0]))
				} else {
					b.WriteByte('?')
				}
			}
		}
		return b.String()
	}
}

// codePageBytes writes folded core font text as one byte per rune.
func codePageBytes(s string) string {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		buf = append(buf, byte(r))
	}
	return string(buf)
}

// unicodeText drops runes outside the basic multilingual plane, which the
// embedded font tables do not index.
func unicodeText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return ' '
		case r > 0xFFFF:
			return '?'
		default:
			return r
		}
	}, s)
}
