package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// LogStats aggregates one day of service logs
type LogStats struct {
	Lines            int
	Errors           int
	Warnings         int
	Requests         int
	ClientErrors     int
	ServerErrors     int
	PaymentsCreated  int
	OrdersCreated    int
	Transitions      map[string]int
	Refunds          int
	WebhookRejected  int
	WebhookDuplicate int
	GatewayFailures  int
	FailingPaths     map[string]int
	ErrorPatterns    map[string]int
}

type logLine struct {
	Level  string `json:"level"`
	Msg    string `json:"msg"`
	Path   string `json:"path"`
	Status int    `json:"status"`
}

var (
	uuidPattern      = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	gatewayIDPattern = regexp.MustCompile(`\b(order|pay|rfnd|refund|cash|chq|bank|upi|card|nb|wallet)_[A-Za-z0-9-]+`)
	amountPattern    = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
	transitionMsg    = regexp.MustCompile(`^Payment \S+ is now ([A-Z]+)$`)
)

func newLogStats() *LogStats {
	return &LogStats{
		Transitions:   make(map[string]int),
		FailingPaths:  make(map[string]int),
		ErrorPatterns: make(map[string]int),
	}
}

func main() {
	logDir := flag.String("dir", "./logs", "directory holding the log files")
	day := flag.String("date", time.Now().Format("2006-01-02"), "day to analyze (YYYY-MM-DD)")
	flag.Parse()

	stats := newLogStats()
	for _, level := range []string{"info", "error"} {
		name := filepath.Join(*logDir, fmt.Sprintf("%s-%s.log", level, *day))
		file, err := os.Open(name)
		if err != nil {
			fmt.Printf("Error opening log file %s: %v\n", name, err)
			continue
		}
		if err := analyze(file, stats); err != nil {
			fmt.Printf("Error reading log file %s: %v\n", name, err)
		}
		file.Close()
	}

	printReport(os.Stdout, *day, stats)
}

// analyze reads JSON log lines from r. Lines that are not JSON are skipped.
func analyze(r io.Reader, stats *LogStats) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var line logLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}
		stats.Lines++
		record(line, stats)
	}
	return scanner.Err()
}

func record(line logLine, stats *LogStats) {
	switch line.Level {
	case "error", "dpanic", "panic", "fatal":
		stats.Errors++
		stats.ErrorPatterns[normalize(line.Msg)]++
	case "warn":
		stats.Warnings++
	}

	if line.Status > 0 {
		stats.Requests++
		switch {
		case line.Status >= 500:
			stats.ServerErrors++
			stats.FailingPaths[normalize(line.Path)]++
		case line.Status >= 400:
			stats.ClientErrors++
			stats.FailingPaths[normalize(line.Path)]++
		}
		return
	}

	msg := line.Msg
	switch {
	case strings.HasPrefix(msg, "Payment ") && strings.Contains(msg, " created: "):
		stats.PaymentsCreated++
	case strings.HasPrefix(msg, "Gateway order ") && strings.Contains(msg, " created for payment "):
		stats.OrdersCreated++
	case strings.HasPrefix(msg, "Payment ") && strings.Contains(msg, " refunded "):
		stats.Refunds++
	case strings.HasPrefix(msg, "Rejected ") && strings.HasSuffix(msg, "webhook with bad signature"):
		stats.WebhookRejected++
	case strings.HasPrefix(msg, "Duplicate ") && strings.Contains(msg, " webhook "):
		stats.WebhookDuplicate++
	case strings.HasPrefix(msg, "Gateway ") && strings.Contains(msg, " failed"):
		stats.GatewayFailures++
	}
	if m := transitionMsg.FindStringSubmatch(msg); m != nil {
		stats.Transitions[m[1]]++
	}
}

// normalize strips identifiers and numbers so equal errors group together
func normalize(s string) string {
	s = uuidPattern.ReplaceAllString(s, ":id")
	s = gatewayIDPattern.ReplaceAllString(s, ":ref")
	s = amountPattern.ReplaceAllString(s, ":n")
	return s
}

func printReport(w io.Writer, day string, stats *LogStats) {
	fmt.Fprintln(w, "\n=== Payment Log Analysis Report ===")
	fmt.Fprintln(w, "Day:", day)
	fmt.Fprintf(w, "Lines analyzed: %d\n", stats.Lines)

	fmt.Fprintln(w, "\n1. Requests:")
	fmt.Fprintf(w, "   Total: %d\n", stats.Requests)
	fmt.Fprintf(w, "   Client errors (4xx): %d\n", stats.ClientErrors)
	fmt.Fprintf(w, "   Server errors (5xx): %d\n", stats.ServerErrors)

	fmt.Fprintln(w, "\n2. Payments:")
	fmt.Fprintf(w, "   Created: %d\n", stats.PaymentsCreated)
	fmt.Fprintf(w, "   Gateway orders: %d\n", stats.OrdersCreated)
	fmt.Fprintf(w, "   Refunds: %d\n", stats.Refunds)
	for _, status := range []string{"COMPLETED", "FAILED", "REFUNDED"} {
		fmt.Fprintf(w, "   Now %s: %d\n", status, stats.Transitions[status])
	}

	fmt.Fprintln(w, "\n3. Gateway:")
	fmt.Fprintf(w, "   Failures: %d\n", stats.GatewayFailures)
	fmt.Fprintf(w, "   Webhooks with bad signature: %d\n", stats.WebhookRejected)
	fmt.Fprintf(w, "   Duplicate webhooks: %d\n", stats.WebhookDuplicate)

	fmt.Fprintln(w, "\n4. Errors:")
	fmt.Fprintf(w, "   Errors: %d, warnings: %d\n", stats.Errors, stats.Warnings)

	fmt.Fprintln(w, "\n5. Most failing paths:")
	printTop(w, stats.FailingPaths, 5, "failures")

	fmt.Fprintln(w, "\n6. Most common errors:")
	printTop(w, stats.ErrorPatterns, 5, "occurrences")
}

func printTop(w io.Writer, counts map[string]int, limit int, unit string) {
	type entry struct {
		key   string
		count int
	}

	var entries []entry
	for k, n := range counts {
		entries = append(entries, entry{k, n})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count == entries[j].count {
			return entries[i].key < entries[j].key
		}
		return entries[i].count > entries[j].count
	})

	for i, e := range entries {
		if i >= limit {
			break
		}
		fmt.Fprintf(w, "   %s: %d %s\n", e.key, e.count, unit)
	}
}
