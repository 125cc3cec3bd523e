package report

import (
	"fmt"
	"io"
	"strings"

	"cdr-tool/internal/glossary"
)

var symbols = map[string]string{
	"triangle": "▲",
	"diamond":  "◆",
	"pentagon": "⬟",
}

// WriteText renders reports as plain text for terminals.
func WriteText(w io.Writer, reports []RuleReport) error {
	for i, rep := range reports {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s %s %s  %s\n", symbol(rep.Glyph.Symbol), strings.ToUpper(rep.RuleID), rep.Title, scoreLabel(rep)); err != nil {
			return err
		}
		for _, f := range rep.Fragments {
			if _, err := fmt.Fprintf(w, "  - %s\n", indent(glossary.PlainText(f.Text))); err != nil {
				return err
			}
		}
		for _, term := range rep.Terms {
			if _, err := fmt.Fprintf(w, "    * %s: %s\n", term.Title, indent(glossary.PlainText(term.Text))); err != nil {
				return err
			}
		}
	}
	return nil
}

func scoreLabel(rep RuleReport) string {
	if rep.Skipped {
		return "[skipped]"
	}
	filled := min(max(rep.Score, 0), max(rep.MaxScore, 0))
	bar := strings.Repeat("■", filled) + strings.Repeat("□", max(rep.MaxScore, 0)-filled)
	return fmt.Sprintf("[%s] %d/%d", bar, rep.Score, rep.MaxScore)
}

func symbol(name string) string {
	if s, ok := symbols[name]; ok {
		return s
	}
	return "•"
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n      ")
}
