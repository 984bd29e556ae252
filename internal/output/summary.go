package output

import (
	"io"
	"sort"
	"strings"
	"time"

	"github.com/conneroisu/csvguard/internal/engine"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteSummary prints a human readable summary of a run to w.
func WriteSummary(w io.Writer, source string, m engine.Metrics) error {
	p := message.NewPrinter(language.English)
	title := cases.Title(language.English)

	if _, err := p.Fprintf(w, "%s: %d records (%d physical lines, %d bytes) in %v\n",
		source, m.Records, m.PhysicalLines, m.Bytes, m.Duration.Round(time.Millisecond)); err != nil {
		return writeError(err)
	}

	if m.Issues == 0 {
		_, err := p.Fprintf(w, "No issues found\n")
		if err != nil {
			return writeError(err)
		}
		return nil
	}

	if _, err := p.Fprintf(w, "%d issues found\n", m.Issues); err != nil {
		return writeError(err)
	}

	names := make([]string, 0, len(m.ByValidator))
	for name := range m.ByValidator {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		label := title.String(strings.ReplaceAll(name, "_", " "))
		if _, err := p.Fprintf(w, "  %-20s %d\n", label, m.ByValidator[name]); err != nil {
			return writeError(err)
		}
	}

	return nil
}
