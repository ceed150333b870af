package strength

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateBuckets(t *testing.T) {
	tests := []struct {
		name     string
		password string
		score    int
		level    Level
	}{
		{"empty", "", 0, Weak},
		{"short letters only", "abc", 0, Weak},
		{"eight lowercase letters", "abcdefgh", 1, Weak},
		{"letters and digits", "abcd1234", 2, Medium},
		{"letters digits special", "abcd123!", 3, Medium},
		{"letters digits special mixed case", "Abcd123!", 4, Strong},
		{"all five checks", "Abcdefgh123!", 5, Strong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.password)
			assert.Equal(t, tt.score, got.Score)
			assert.Equal(t, tt.level, got.Level)
		})
	}
}

func TestEvaluateColors(t *testing.T) {
	assert.Equal(t, "red", Evaluate("a").Color)
	assert.Equal(t, "yellow", Evaluate("abcd1234").Color)
	assert.Equal(t, "green", Evaluate("Abcdefgh123!").Color)
}

// Turning any single check from false to true must never lower the score.
func TestEvaluateMonotonic(t *testing.T) {
	steps := []string{
		"ab1",          // digits+letters only
		"ab1!",         // + special
		"Ab1!",         // + mixed case
		"Ab1!efgh",     // + length >= 8
		"Ab1!efghijkl", // + length >= 12
	}
	prev := Evaluate(steps[0]).Score
	for _, password := range steps[1:] {
		score := Evaluate(password).Score
		assert.GreaterOrEqual(t, score, prev, "password %q", password)
		prev = score
	}
}
