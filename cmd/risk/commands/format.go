package commands

import (
	"fmt"
	"io"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const lineWidth = 59

// printer writes formatted output with thousands separators
type printer struct {
	w io.Writer
	p *message.Printer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, p: message.NewPrinter(language.English)}
}

// Header prints a titled block header
func (pr *printer) Header(title string) {
	fmt.Fprintln(pr.w)
	pr.DoubleSeparator()
	fmt.Fprintf(pr.w, "  %s\n", title)
	pr.Separator()
}

// Separator prints a visual separator
func (pr *printer) Separator() {
	fmt.Fprintln(pr.w, strings.Repeat("─", lineWidth))
}

// DoubleSeparator prints a double-line separator
func (pr *printer) DoubleSeparator() {
	fmt.Fprintln(pr.w, strings.Repeat("═", lineWidth))
}

// KeyValue prints a key-value pair
func (pr *printer) KeyValue(key, value string, keyWidth int) {
	fmt.Fprintf(pr.w, "  %-*s : %s\n", keyWidth, key, value)
}

// TableHeader prints a table header
func (pr *printer) TableHeader(columns []string, widths []int) {
	pr.TableRow(columns, widths)

	total := 0
	for i, width := range widths {
		total += width
		if i < len(widths)-1 {
			total += 2 // spacing
		}
	}
	fmt.Fprintf(pr.w, "  %s\n", strings.Repeat("─", total))
}

// TableRow prints a table row; the first column is left-aligned, the rest right-aligned
func (pr *printer) TableRow(values []string, widths []int) {
	var b strings.Builder
	b.WriteString("  ")
	for i, val := range values {
		if i == 0 {
			fmt.Fprintf(&b, "%-*s", widths[i], val)
		} else {
			fmt.Fprintf(&b, "%*s", widths[i], val)
		}
		if i < len(values)-1 {
			b.WriteString("  ")
		}
	}
	fmt.Fprintln(pr.w, strings.TrimRight(b.String(), " "))
}

// Success prints a success message
func (pr *printer) Success(message string) {
	fmt.Fprintf(pr.w, "✅ %s\n", message)
}

// Warning prints a warning message
func (pr *printer) Warning(message string) {
	fmt.Fprintf(pr.w, "⚠️  %s\n", message)
}

// Info prints an info message
func (pr *printer) Info(message string) {
	fmt.Fprintf(pr.w, "ℹ️  %s\n", message)
}

// Money formats a currency amount: 1234567.891 → "1,234,567.89"
func (pr *printer) Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	if v == 0 {
		v = 0 // -0 → 0
	}
	return pr.p.Sprintf("%.2f", v)
}

// Pct formats a fraction as a percentage: -0.0512 → "-5.12%"
func (pr *printer) Pct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	if v == 0 {
		v = 0
	}
	return pr.p.Sprintf("%.2f%%", v*100)
}

// Int formats an integer with separators
func (pr *printer) Int(v int) string {
	return pr.p.Sprintf("%d", v)
}
