package negotiation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Trigger 是一个价格触发词：数字字面量或其英文单词形式，二者任一命中即可。
type Trigger struct {
	Digits string
	Words  string
}

// NewTrigger 由整数价格生成触发词，单词形式由 SpellNumber 推导。
func NewTrigger(price int) Trigger {
	return Trigger{Digits: strconv.Itoa(price), Words: SpellNumber(price)}
}

// Matcher 判断消息中是否出现某个价格触发词。
type Matcher interface {
	Match(message string, trigger Trigger) bool
}

// NewMatcher 根据匹配模式创建 Matcher。
func NewMatcher(mode MatchMode) (Matcher, error) {
	switch mode {
	case MatchToken:
		return tokenMatcher{}, nil
	case MatchSubstring:
		return substringMatcher{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown matching mode %q", ErrInvalidConfig, mode)
	}
}

// substringMatcher 数字按原文区分大小写包含，单词按小写包含。
type substringMatcher struct{}

func (substringMatcher) Match(message string, t Trigger) bool {
	if t.Digits != "" && strings.Contains(message, t.Digits) {
		return true
	}
	return t.Words != "" && strings.Contains(strings.ToLower(message), t.Words)
}

// tokenMatcher 把消息切成字母数字 token，数字必须整 token 相等，单词必须是连续的 token 序列。
type tokenMatcher struct{}

func (tokenMatcher) Match(message string, t Trigger) bool {
	tokens := tokenize(message)
	if t.Digits != "" {
		for _, tok := range tokens {
			if tok == t.Digits {
				return true
			}
		}
	}
	if t.Words == "" {
		return false
	}
	return containsSequence(tokens, strings.Fields(t.Words))
}

// tokenize 按非字母数字字符切分并转为小写，"$120.00" 得到 ["120", "00"]。
func tokenize(message string) []string {
	return strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsSequence(tokens, seq []string) bool {
	if len(seq) == 0 || len(seq) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(seq) <= len(tokens); i++ {
		for j, w := range seq {
			if tokens[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}

// containsPhrase 用于基础咨询关键字，两种模式下都按小写子串匹配。
func containsPhrase(lower string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
