package health

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Rule is a threshold check over the pipeline health metrics.
type Rule struct {
	Name     string        `mapstructure:"name"`
	Expr     string        `mapstructure:"expr"`
	For      time.Duration `mapstructure:"for"`
	Severity string        `mapstructure:"severity"`
	Message  string        `mapstructure:"message"`
}

// exprPattern matches "metric op value".
var exprPattern = regexp.MustCompile(`^(\w+)\s*(>=|<=|==|!=|>|<)\s*(-?[\d.]+)$`)

// Validate reports whether the expression can be parsed.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if _, _, _, ok := r.parse(); !ok {
		return fmt.Errorf("rule %s: cannot parse expression %q", r.Name, r.Expr)
	}
	return nil
}

func (r *Rule) parse() (metric, op string, threshold float64, ok bool) {
	matches := exprPattern.FindStringSubmatch(strings.TrimSpace(r.Expr))
	if len(matches) != 4 {
		return "", "", 0, false
	}
	threshold, err := strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return "", "", 0, false
	}
	return matches[1], matches[2], threshold, true
}

// Evaluate evaluates the rule expression against metrics. A missing metric
// never triggers.
func (r *Rule) Evaluate(metrics map[string]float64) bool {
	metricName, op, threshold, ok := r.parse()
	if !ok {
		return false
	}

	value, exists := metrics[metricName]
	if !exists {
		return false
	}

	switch op {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	case "==":
		return value == threshold
	case "!=":
		return value != threshold
	default:
		return false
	}
}

// FormatMessage formats the alert message with the current metric value.
func (r *Rule) FormatMessage(metrics map[string]float64) string {
	msg := fmt.Sprintf("[%s] %s: %s", strings.ToUpper(r.Severity), r.Name, r.Message)
	if metric, _, _, ok := r.parse(); ok {
		if v, exists := metrics[metric]; exists {
			msg += fmt.Sprintf(" (%s=%.4g)", metric, v)
		}
	}
	return msg
}

// DefaultRules watch for a pipeline that keeps degrading or losing
// conviction.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "signals_degraded",
			Expr:     "degraded_ratio > 0.5",
			For:      10 * time.Minute,
			Severity: "warning",
			Message:  "more than half of recent signals fell back to the degraded result",
		},
		{
			Name:     "low_confidence",
			Expr:     "avg_confidence < 40",
			For:      30 * time.Minute,
			Severity: "info",
			Message:  "average confidence of recent signals is low",
		},
	}
}
