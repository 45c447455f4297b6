package ueba

import (
	"strings"
	"testing"
	"time"
)

func scoreChat(msg string, rt time.Duration) int {
	return Score(DefaultChatRules(), ChatInteraction{Message: msg, ResponseTime: rt})
}

func TestChatScore_UrgentSlowMessage(t *testing.T) {
	// Keyword (+30) and slow response (+20) at minimum; "URGENT HELP" is
	// also mostly uppercase, which trips the spam rule.
	got := scoreChat("URGENT HELP", 6000*time.Millisecond)
	if got < 50 {
		t.Errorf("score = %d, want >= 50", got)
	}
	if got > 100 {
		t.Errorf("score = %d, want clamped to 100", got)
	}
}

func TestChatScore_PlainMessageScoresZero(t *testing.T) {
	got := scoreChat("my brakes feel fine", 100*time.Millisecond)
	if got != 0 {
		t.Errorf("score = %d, want 0", got)
	}
}

func TestChatScore_KeywordCaseInsensitive(t *testing.T) {
	for _, msg := range []string{"my car Broke Down on i5", "ACCIDENT on the highway today ok", "need help now"} {
		if got := scoreChat(msg, 100*time.Millisecond); got < 30 {
			t.Errorf("score(%q) = %d, want >= 30", msg, got)
		}
	}
}

func TestChatScore_SlowResponseBoundary(t *testing.T) {
	// Strictly greater than 5000ms.
	if got := scoreChat("all good thanks", 5000*time.Millisecond); got != 0 {
		t.Errorf("score at exactly 5000ms = %d, want 0", got)
	}
	if got := scoreChat("all good thanks", 5001*time.Millisecond); got != 20 {
		t.Errorf("score at 5001ms = %d, want 20", got)
	}
}

func TestChatScore_OddLength(t *testing.T) {
	if got := scoreChat("x", 0); got != 10 {
		t.Errorf("score(1 char) = %d, want 10", got)
	}
	long := strings.Repeat("the engine makes a noise ", 21) // > 500 chars
	if got := scoreChat(long, 0); got != 10 {
		t.Errorf("score(long message) = %d, want 10", got)
	}
}

func TestChatScore_ClampedAt100(t *testing.T) {
	// Keyword + slow + odd length + spam = 100 exactly after clamping.
	msg := "HELP " + strings.Repeat("A", 600)
	got := scoreChat(msg, 10*time.Second)
	if got != 100 {
		t.Errorf("score = %d, want 100", got)
	}
}

func TestLooksLikeSpam_RepeatedCharacters(t *testing.T) {
	if !looksLikeSpam("aaaaaaaaaaa") { // 11 consecutive
		t.Error("11 repeated characters not flagged as spam")
	}
	if looksLikeSpam("aaaaaaaaaa") { // 10 consecutive
		t.Error("10 repeated characters wrongly flagged as spam")
	}
}

func TestLooksLikeSpam_UppercaseRatio(t *testing.T) {
	if !looksLikeSpam("THISISALLCAPS") {
		t.Error("all-caps message not flagged as spam")
	}
	// Short messages are exempt from the uppercase check.
	if looksLikeSpam("HELP") {
		t.Error("short uppercase message wrongly flagged as spam")
	}
	if looksLikeSpam("normal sentence with One Capital") {
		t.Error("mostly lowercase message wrongly flagged as spam")
	}
}

func TestLoginScore_OddHours(t *testing.T) {
	rules := DefaultLoginRules()
	cases := []struct {
		hour int
		want int
	}{
		{1, 0}, {2, 20}, {3, 20}, {5, 20}, {6, 0}, {14, 0},
	}
	for _, tc := range cases {
		at := time.Date(2025, 6, 1, tc.hour, 0, 0, 0, time.Local)
		if got := Score(rules, Login{At: at}); got != tc.want {
			t.Errorf("login score at %02d:00 = %d, want %d", tc.hour, got, tc.want)
		}
	}
}
