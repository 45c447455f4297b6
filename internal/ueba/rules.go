package ueba

import (
	"strings"
	"time"
	"unicode"
)

// Rule is one scoring signal: when Match fires, Weight is added to the
// event's risk score. Rules are evaluated in order and the total is clamped
// to [0, 100], so new signals can be appended without touching aggregation.
type Rule[S any] struct {
	Name   string
	Weight int
	Match  func(S) bool
}

// Score evaluates the rules against a signal and clamps the total.
func Score[S any](rules []Rule[S], sig S) int {
	total := 0
	for _, r := range rules {
		if r.Match(sig) {
			total += r.Weight
		}
	}
	if total < 0 {
		return 0
	}
	if total > 100 {
		return 100
	}
	return total
}

// ChatInteraction is the signal scored for chatbot exchanges.
type ChatInteraction struct {
	Message      string
	ResponseTime time.Duration
}

// Login is the signal scored for login events.
type Login struct {
	At time.Time
}

// emergencyKeywords trigger the urgency rule when present in a message.
var emergencyKeywords = []string{"emergency", "urgent", "accident", "broke down", "help", "crash"}

const (
	slowResponseThreshold = 5 * time.Second
	oddLengthMax          = 500
	oddLengthMin          = 2
)

// DefaultChatRules returns the chat interaction scoring rules.
func DefaultChatRules() []Rule[ChatInteraction] {
	return []Rule[ChatInteraction]{
		{
			Name:   "emergency_keyword",
			Weight: 30,
			Match: func(c ChatInteraction) bool {
				msg := strings.ToLower(c.Message)
				for _, kw := range emergencyKeywords {
					if strings.Contains(msg, kw) {
						return true
					}
				}
				return false
			},
		},
		{
			Name:   "slow_response",
			Weight: 20,
			Match: func(c ChatInteraction) bool {
				return c.ResponseTime > slowResponseThreshold
			},
		},
		{
			Name:   "odd_length",
			Weight: 10,
			Match: func(c ChatInteraction) bool {
				n := len(c.Message)
				return n > oddLengthMax || n < oddLengthMin
			},
		},
		{
			Name:   "spam_pattern",
			Weight: 40,
			Match: func(c ChatInteraction) bool {
				return looksLikeSpam(c.Message)
			},
		},
	}
}

// DefaultLoginRules returns the login scoring rules. Only the odd-hours
// signal is implemented; the rule list shape leaves room for more.
func DefaultLoginRules() []Rule[Login] {
	return []Rule[Login]{
		{
			Name:   "odd_hours",
			Weight: 20,
			Match: func(l Login) bool {
				h := l.At.Hour()
				return h >= 2 && h <= 5
			},
		},
	}
}

// looksLikeSpam reports whether a message matches either spam pattern: a
// single character repeated at least 11 times consecutively, or a mostly
// uppercase message longer than 10 characters.
func looksLikeSpam(msg string) bool {
	run := 0
	var prev rune
	for i, r := range msg {
		if i > 0 && r == prev {
			run++
			if run >= 10 {
				// 11 identical characters in a row.
				return true
			}
		} else {
			run = 0
		}
		prev = r
	}

	if n := len([]rune(msg)); n > 10 {
		upper := 0
		for _, r := range msg {
			if unicode.IsUpper(r) {
				upper++
			}
		}
		if float64(upper)/float64(n) > 0.7 {
			return true
		}
	}
	return false
}
