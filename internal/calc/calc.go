// Package calc evaluates a single spoken binary operation such as
// "5 times 3". It never evaluates free-form expressions.
package calc

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"voxdesk/internal/nlu"
)

var (
	ErrNoExpression = errors.New("no calculation found")
	ErrDivideByZero = errors.New("divide by zero")
)

var (
	// A sign is only taken when no digit precedes it, so "minus 5 plus 3"
	// reads as -5 + 3 while "10 minus 12" stays a subtraction.
	exprRe = regexp.MustCompile(`(?:^|[^\d.])(-\s*)?(\d+(?:\.\d+)?)\s*([+\-*/])\s*(-\s*)?(\d+(?:\.\d+)?)`)

	operatorWords = strings.NewReplacer(
		"multiplied by", "*",
		"divided by", "/",
		"plus", "+",
		"minus", "-",
		"times", "*",
		"over", "/",
		"into", "*",
	)
	xRe = regexp.MustCompile(`\bx\b`)
)

// Evaluate parses "<number> <operator> <number>" after translating spoken
// operators and number words.
func Evaluate(query string) (float64, error) {
	q := nlu.ReplaceNumberWords(strings.ToLower(query))
	q = operatorWords.Replace(q)
	q = xRe.ReplaceAllString(q, "*")

	m := exprRe.FindStringSubmatch(q)
	if m == nil {
		return 0, fmt.Errorf("%w in %q", ErrNoExpression, query)
	}

	a, err := operand(m[1], m[2])
	if err != nil {
		return 0, err
	}
	b, err := operand(m[4], m[5])
	if err != nil {
		return 0, err
	}

	switch m[3] {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	}
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

func operand(sign, digits string) (float64, error) {
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", digits, err)
	}
	if sign != "" {
		v = -v
	}
	return v, nil
}

// Format prints whole numbers without a fraction and everything else with
// two decimals.
func Format(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
