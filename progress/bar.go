package progress

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/jmorganca/subword/format"
)

const defaultTermWidth = 80

// RoundBar shows how many training rounds have completed along with the most
// recent merge.
type RoundBar struct {
	mu sync.Mutex

	message string
	total   int
	current int
	last    string

	started time.Time
}

func NewRoundBar(message string, total int) *RoundBar {
	return &RoundBar{message: message, total: total, started: time.Now()}
}

// Set records that round has completed, merging pair which occurred count
// times.
func (b *RoundBar) Set(round int, pair string, count int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = min(round, b.total)
	b.last = fmt.Sprintf("%s (%s)", pair, format.HumanNumber(uint64(count)))
}

// formatDuration limits the rendering of a time.Duration to 2 units
func formatDuration(d time.Duration) string {
	if d >= 100*time.Hour {
		return "99h+"
	}

	if d >= time.Hour {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}

	return d.Round(time.Second).String()
}

func (b *RoundBar) percent() float64 {
	if b.total > 0 {
		return float64(b.current) / float64(b.total) * 100
	}

	return 100
}

func (b *RoundBar) String() string {
	termWidth, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil {
		termWidth = defaultTermWidth
	}

	return b.render(termWidth)
}

func (b *RoundBar) render(width int) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var pre, mid, suf strings.Builder
	if b.message != "" {
		pre.WriteString(strings.TrimSpace(b.message))
		pre.WriteString(" ")
	}

	fmt.Fprintf(&pre, "%3.0f%% ", b.percent())

	fmt.Fprintf(&suf, "%d/%d", b.current, b.total)
	if b.last != "" {
		fmt.Fprintf(&suf, " %s", b.last)
	}

	fmt.Fprintf(&suf, " [%s]", formatDuration(time.Since(b.started)))

	// 2 boundary characters and 1 space
	f := width - len([]rune(pre.String())) - len([]rune(suf.String())) - 3
	if f > 0 {
		n := int(float64(f) * b.percent() / 100)
		mid.WriteString("▕")
		mid.WriteString(strings.Repeat("█", n))
		mid.WriteString(strings.Repeat(" ", f-n))
		mid.WriteString("▏ ")
	}

	return pre.String() + mid.String() + suf.String()
}
