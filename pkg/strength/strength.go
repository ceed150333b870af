// Package strength scores passwords for the signup and reset flows.
package strength

import "regexp"

type Level string

const (
	Weak   = Level("Weak")
	Medium = Level("Medium")
	Strong = Level("Strong")
)

// MinAcceptableScore is the gate applied at signup and password reset.
const MinAcceptableScore = 3

type Strength struct {
	Score int    `json:"score"`
	Level Level  `json:"level"`
	Color string `json:"color"`
}

var (
	digitRe   = regexp.MustCompile(`\d`)
	letterRe  = regexp.MustCompile(`[a-zA-Z]`)
	specialRe = regexp.MustCompile(`[^A-Za-z0-9]`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
)

// Evaluate scores a password 0-5 from five independent checks: length >= 8,
// letters and digits mixed, a special character, mixed case, length >= 12.
func Evaluate(password string) Strength {
	if password == "" {
		return Strength{Level: Weak, Color: "red"}
	}

	score := 0
	if len(password) >= 8 {
		score++
	}
	if digitRe.MatchString(password) && letterRe.MatchString(password) {
		score++
	}
	if specialRe.MatchString(password) {
		score++
	}
	if upperRe.MatchString(password) && lowerRe.MatchString(password) {
		score++
	}
	if len(password) >= 12 {
		score++
	}

	switch {
	case score <= 1:
		return Strength{Score: score, Level: Weak, Color: "red"}
	case score <= 3:
		return Strength{Score: score, Level: Medium, Color: "yellow"}
	default:
		return Strength{Score: score, Level: Strong, Color: "green"}
	}
}
