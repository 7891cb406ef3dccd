package nlu

import (
	"strconv"
	"strings"
)

var smallNumbers = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tensNumbers = map[string]int{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

func isNumberWord(w string) bool {
	_, small := smallNumbers[w]
	_, tens := tensNumbers[w]
	return small || tens || w == "hundred"
}

// ReplaceNumberWords rewrites spelled-out numbers up to the hundreds as
// digits: "twenty five minutes" becomes "25 minutes".
func ReplaceNumberWords(s string) string {
	var toks []string
	for _, t := range strings.Fields(s) {
		if parts := strings.Split(t, "-"); len(parts) > 1 && allNumberWords(parts) {
			toks = append(toks, parts...)
			continue
		}
		toks = append(toks, t)
	}

	out := make([]string, 0, len(toks))
	for i := 0; i < len(toks); {
		n, used := parseNumber(toks[i:])
		if used == 0 {
			out = append(out, toks[i])
			i++
			continue
		}
		out = append(out, strconv.Itoa(n))
		i += used
	}
	return strings.Join(out, " ")
}

func allNumberWords(ws []string) bool {
	for _, w := range ws {
		if !isNumberWord(w) {
			return false
		}
	}
	return true
}

func parseNumber(toks []string) (int, int) {
	if len(toks) >= 2 && toks[0] == "a" && toks[1] == "hundred" {
		n, used := parseBelowHundred(skipAnd(toks[2:]))
		if used > 0 {
			return 100 + n, 2 + used + andCount(toks[2:])
		}
		return 100, 2
	}

	val, i := parseBelowHundred(toks)
	if i == 0 {
		return 0, 0
	}

	if i < len(toks) && toks[i] == "hundred" && val > 0 && val < 10 {
		val *= 100
		i++
		rest := toks[i:]
		n, used := parseBelowHundred(skipAnd(rest))
		if used > 0 {
			val += n
			i += used + andCount(rest)
		}
	}
	return val, i
}

func parseBelowHundred(toks []string) (int, int) {
	if len(toks) == 0 {
		return 0, 0
	}
	if v, ok := tensNumbers[toks[0]]; ok {
		if len(toks) > 1 {
			if u, ok := smallNumbers[toks[1]]; ok && u > 0 && u < 10 {
				return v + u, 2
			}
		}
		return v, 1
	}
	if v, ok := smallNumbers[toks[0]]; ok {
		return v, 1
	}
	return 0, 0
}

func skipAnd(toks []string) []string {
	if len(toks) > 0 && toks[0] == "and" {
		return toks[1:]
	}
	return toks
}

func andCount(toks []string) int {
	if len(toks) > 0 && toks[0] == "and" {
		return 1
	}
	return 0
}
