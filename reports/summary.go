package reports

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Govind-619/PropertyHub/models"
)

// Period is the reporting window of an export
type Period struct {
	Name  string
	Start time.Time
	End   time.Time
}

// ParsePeriod resolves day, week, month or year relative to now
func ParsePeriod(name string, now time.Time) (Period, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "month"
	}

	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999999999, now.Location())
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var start time.Time
	switch name {
	case "day":
		start = startOfDay
	case "week":
		start = startOfDay.AddDate(0, 0, -6)
	case "month":
		start = startOfDay.AddDate(0, 0, -29)
	case "year":
		start = startOfDay.AddDate(-1, 0, 1)
	default:
		return Period{}, fmt.Errorf("period must be day, week, month or year, got %q", name)
	}
	return Period{Name: name, Start: start, End: endOfDay}, nil
}

// String renders the period the way report headers show it
func (p Period) String() string {
	return strings.ToUpper(p.Name) + " | " + p.Start.Format("2006-01-02") + " to " + p.End.Format("2006-01-02")
}

// Summary aggregates a set of payments. Refund rows count towards Refunds only.
type Summary struct {
	Payments  int
	Completed int
	Pending   int
	Failed    int
	Refunded  int
	Gross     float64
	Refunds   float64
	Net       float64
}

// Summarize computes the totals of payments
func Summarize(payments []models.Payment) Summary {
	var s Summary
	for _, p := range payments {
		if p.IsRefund() {
			s.Refunds += math.Abs(p.Amount)
			continue
		}
		s.Payments++
		switch p.Status {
		case models.PaymentStatusCompleted:
			s.Completed++
			s.Gross += p.Amount
		case models.PaymentStatusRefunded:
			s.Refunded++
			s.Gross += p.Amount
		case models.PaymentStatusPending:
			s.Pending++
		case models.PaymentStatusFailed:
			s.Failed++
		}
	}
	s.Gross = round2(s.Gross)
	s.Refunds = round2(s.Refunds)
	s.Net = round2(s.Gross - s.Refunds)
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
