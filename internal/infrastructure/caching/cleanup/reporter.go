package cleanup

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
	"github.com/AtRiskMedia/faq-jsonld-go/internal/infrastructure/caching/stores"
)

const (
	cyan       = "\033[38;2;86;182;194m"  // One Dark Cyan: #56B6C2
	cyanBright = "\033[38;2;97;228;240m"  // Brighter Cyan: #61E4F0
	dimCyan    = "\033[38;2;47;91;102m"   // Dim Cyan: #2F5B66
	grey       = "\033[38;2;110;118;129m" // Brighter Grey: #6E7681
	dimGrey    = "\033[38;2;75;82;99m"    // Darker Grey: #4B5263
	success    = "\033[38;2;62;130;144m"  // Dim Cyan: #3E8290
	errorRed   = "\033[38;2;224;108;117m" // One Dark Red: #E06C75
	white      = "\033[38;2;171;178;191m" // One Dark Foreground: #ABB2BF
	purple     = "\033[38;2;198;120;221m" // One Dark Purple: #C678DD
	dimPurple  = "\033[38;2;142;87;158m"  // Dim Purple: #8E579E
	reset      = "\033[0m"
	bold       = "\033[1m"
)

// HealthSource supplies the numbers printed in a report.
type HealthSource interface {
	QueueLength(ctx context.Context) (int, error)
	LastRun(ctx context.Context) (*faq.QueueRun, error)
	CacheStats() stores.Stats
}

type Reporter struct {
	source HealthSource
	out    io.Writer
}

func NewReporter(source HealthSource) *Reporter {
	return &Reporter{source: source, out: os.Stdout}
}

func (r *Reporter) LogStage(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Fprintf(r.out, "%s%s✦ %s%s%s\n", success, bold, grey, formattedMsg, reset)
}

func (r *Reporter) LogSuccess(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Fprintf(r.out, "%s%s✦ %s%s%s\n", success, bold, white, formattedMsg, reset)
}

func (r *Reporter) LogError(message string, err error) {
	fmt.Fprintf(r.out, "%s%s✖ ERROR: %s%s: %v%s\n", bold, errorRed, grey, message, err, reset)
}

func (r *Reporter) LogInfo(message string, args ...any) {
	formattedMsg := fmt.Sprintf(message, args...)
	fmt.Fprintf(r.out, "%s▶ %s%s%s\n", dimGrey, grey, formattedMsg, reset)
}

func (r *Reporter) PrintReport(ctx context.Context) {
	fmt.Fprint(r.out, r.GenerateReport(ctx))
}

// GenerateReport renders queue and cache state as three colored lines.
func (r *Reporter) GenerateReport(ctx context.Context) string {
	var report strings.Builder
	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 MST")
	report.WriteString(fmt.Sprintf("%s%s▓ %s | FAQ JSON-LD%s\n", bold, dimCyan, timestamp, reset))

	var queueLine strings.Builder
	if length, err := r.source.QueueLength(ctx); err == nil {
		queueLine.WriteString(fmt.Sprintf("%s✦ %squeue: %s%d pending%s", success, grey, cyanBright, length, reset))
	} else {
		queueLine.WriteString(fmt.Sprintf("%s✖ %squeue: %sUNAVAILABLE%s", errorRed, grey, errorRed, reset))
	}
	queueLine.WriteString("  ")
	if run, err := r.source.LastRun(ctx); err == nil && run != nil {
		queueLine.WriteString(fmt.Sprintf("%slast run: %s%s %s(%s, %d processed)%s",
			grey, white, run.RanAt.Format(time.RFC3339), dimGrey, run.Trigger, run.Processed, reset))
	} else {
		queueLine.WriteString(fmt.Sprintf("%s○ %slast run: %s--%s", dimGrey, grey, dimGrey, reset))
	}
	report.WriteString(queueLine.String() + "\n")

	stats := r.source.CacheStats()
	formatItem := func(label string, count int) string {
		if count > 0 {
			return fmt.Sprintf(" %s%s:%s%d", dimPurple, label, white, count)
		}
		return fmt.Sprintf(" %s%s:%s--", dimGrey, label, dimGrey)
	}
	var cacheLine strings.Builder
	cacheLine.WriteString(fmt.Sprintf("%s✦ render cache:%s", purple, reset))
	cacheLine.WriteString(formatItem("entries", stats.Entries))
	cacheLine.WriteString(formatItem("with-faqs", stats.Entries-stats.Empty))
	cacheLine.WriteString(formatItem("empty", stats.Empty))
	cacheLine.WriteString(fmt.Sprintf(" %sgeneration:%s%d%s", dimCyan, cyan, stats.Generation, reset))
	report.WriteString(cacheLine.String() + "\n")

	return report.String()
}
