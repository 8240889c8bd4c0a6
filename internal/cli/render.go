package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bastiangx/tableserve/pkg/dictionary"
	"github.com/bastiangx/tableserve/pkg/session"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	hintStyle      = lipgloss.NewStyle().Faint(true)
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	pageStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	preeditStyle   = lipgloss.NewStyle().Italic(true).Faint(true)
	candidateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
)

// renderPages lays out one line per page. Candidates are numbered from 1
// within their page, the way a host shows selection keys; the preedit is
// shown unnumbered.
func renderPages(res session.Result) string {
	var b strings.Builder
	for n, page := range res.Pages {
		items := make([]string, 0, len(page))
		key := 1
		for i, word := range page {
			if n == 0 && i == 0 {
				items = append(items, preeditStyle.Render(word))
				continue
			}
			items = append(items, fmt.Sprintf("%d.%s", key, candidateStyle.Render(word)))
			key++
		}
		b.WriteString(pageStyle.Render(fmt.Sprintf("[%d/%d] ", n+1, len(res.Pages))))
		b.WriteString(strings.Join(items, " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// renderRecords lists each candidate with the fields that ordered it.
// Packed tables only carry key lengths.
func renderRecords(records []dictionary.Record) string {
	var b strings.Builder
	for i, r := range records {
		fmt.Fprintf(&b, "%3d. %s mlen=%d user_freq=%d freq=%d id=%d\n",
			i+1, candidateStyle.Render(r.Phrase), r.KeyLength, r.UserFreq, r.Freq, r.ID)
	}
	return b.String()
}

func renderStats(stats map[string]int) string {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("%-16s %d", k, stats[k])
	}
	return strings.Join(lines, "\n")
}
