package negotiation

import (
	"strconv"
	"strings"
)

const maxOffer = 999999

var (
	smallNumbers = []string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen",
	}
	tensNumbers = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}

	// numberWords 是可以出现在数字短语里的单位词，不含 zero。
	numberWords = func() map[string]int {
		m := make(map[string]int, len(smallNumbers)+len(tensNumbers))
		for i, w := range smallNumbers[1:] {
			m[w] = i + 1
		}
		for i, w := range tensNumbers {
			if w != "" {
				m[w] = i * 10
			}
		}
		return m
	}()
)

// SpellNumber 把 0..999999 之间的整数转成小写英文，例如 120 -> "one hundred twenty"。
// 超出范围返回空字符串。
func SpellNumber(n int) string {
	if n < 0 || n > maxOffer {
		return ""
	}
	if n == 0 {
		return smallNumbers[0]
	}
	var parts []string
	if n >= 1000 {
		parts = append(parts, spellBelowThousand(n/1000), "thousand")
		n %= 1000
	}
	if n > 0 {
		parts = append(parts, spellBelowThousand(n))
	}
	return strings.Join(parts, " ")
}

func spellBelowThousand(n int) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, smallNumbers[n/100], "hundred")
		n %= 100
	}
	switch {
	case n == 0:
	case n < 20:
		parts = append(parts, smallNumbers[n])
	default:
		parts = append(parts, tensNumbers[n/10])
		if n%10 != 0 {
			parts = append(parts, smallNumbers[n%10])
		}
	}
	return strings.Join(parts, " ")
}

// ParseOffer 提取消息中的第一个报价：优先取第一个独立的整数 token，
// 其次取第一个英文数字短语（"seventy"、"one hundred twenty"）。
// 只接受 1..999999 的值，单独的 "one" 不视为报价。
func ParseOffer(message string) (int, bool) {
	tokens := tokenize(message)
	for _, tok := range tokens {
		if !isDigits(tok) {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < 1 || n > maxOffer {
			continue
		}
		return n, true
	}
	return parseSpelled(tokens)
}

func parseSpelled(tokens []string) (int, bool) {
	for i := 0; i < len(tokens); i++ {
		if _, ok := numberWords[tokens[i]]; !ok {
			continue
		}
		total, current, used := 0, 0, 0
	scan:
		for j := i; j < len(tokens); j++ {
			w := tokens[j]
			switch {
			case numberWords[w] > 0:
				current += numberWords[w]
			case w == "hundred":
				current *= 100
			case w == "thousand":
				total += current * 1000
				current = 0
			case w == "and" && j+1 < len(tokens) && numberWords[tokens[j+1]] > 0:
				// "one hundred and twenty"
			default:
				break scan
			}
			used++
		}
		value := total + current
		if used == 1 && tokens[i] == "one" {
			continue
		}
		if value >= 1 && value <= maxOffer {
			return value, true
		}
	}
	return 0, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
