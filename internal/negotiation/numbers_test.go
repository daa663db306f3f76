package negotiation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpellNumber(t *testing.T) {
	cases := map[int]string{
		0:      "zero",
		7:      "seven",
		15:     "fifteen",
		70:     "seventy",
		75:     "seventy five",
		100:    "one hundred",
		120:    "one hundred twenty",
		130:    "one hundred thirty",
		150:    "one hundred fifty",
		1000:   "one thousand",
		2305:   "two thousand three hundred five",
		999999: "nine hundred ninety nine thousand nine hundred ninety nine",
	}
	for n, want := range cases {
		assert.Equal(t, want, SpellNumber(n), "n=%d", n)
	}
	assert.Empty(t, SpellNumber(-1))
	assert.Empty(t, SpellNumber(1000000))
}

func TestParseOffer(t *testing.T) {
	cases := []struct {
		msg   string
		want  int
		found bool
	}{
		{"I can do 70", 70, true},
		{"$120.50 final", 120, true},
		{"maybe 55 or 60", 55, true},
		{"how about one hundred twenty", 120, true},
		{"one hundred and twenty dollars", 120, true},
		{"Seventy five?", 75, true},
		{"I like this one", 0, false},
		{"this one for ninety", 90, true},
		{"0 dollars", 0, false},
		{"99999999999999999999999", 0, false},
		{"", 0, false},
		{"no numbers here", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseOffer(tc.msg)
		assert.Equal(t, tc.found, ok, tc.msg)
		assert.Equal(t, tc.want, got, tc.msg)
	}
}

func TestTokenMatcher(t *testing.T) {
	m := tokenMatcher{}
	tr := NewTrigger(120)
	assert.True(t, m.Match("120", tr))
	assert.True(t, m.Match("(120)", tr))
	assert.True(t, m.Match("ONE HUNDRED TWENTY", tr))
	assert.True(t, m.Match("one-hundred-twenty", tr))
	assert.False(t, m.Match("1200", tr))
	assert.False(t, m.Match("one hundred", tr))
	assert.False(t, m.Match("", tr))
}

func TestSubstringMatcher(t *testing.T) {
	m := substringMatcher{}
	tr := NewTrigger(70)
	assert.True(t, m.Match("170", tr))
	assert.True(t, m.Match("SEVENTY", tr))
	assert.True(t, m.Match("seventy-five", tr))
	assert.False(t, m.Match("seven", tr))
}

func TestNewMatcherRejectsUnknownMode(t *testing.T) {
	_, err := NewMatcher("fuzzy")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
