package sentiment

import (
	"context"
	"strings"
	"unicode"
)

// defaultLexicon 的取值参考常见英文情感词典，覆盖买家议价时常用的礼貌/抱怨用语。
var defaultLexicon = map[string]float64{
	"good":          0.7,
	"great":         0.8,
	"excellent":     1.0,
	"awesome":       1.0,
	"amazing":       0.6,
	"wonderful":     1.0,
	"fantastic":     0.4,
	"perfect":       1.0,
	"best":          1.0,
	"beautiful":     0.85,
	"lovely":        0.5,
	"love":          0.5,
	"nice":          0.6,
	"cool":          0.35,
	"fine":          0.4,
	"fair":          0.7,
	"reasonable":    0.2,
	"happy":         0.8,
	"glad":          0.5,
	"pleased":       0.5,
	"kind":          0.6,
	"friendly":      0.375,
	"interested":    0.25,
	"appreciate":    0.4,
	"thanks":        0.3,
	"thank":         0.3,
	"please":        0.3,
	"bad":           -0.7,
	"poor":          -0.4,
	"terrible":      -1.0,
	"awful":         -1.0,
	"horrible":      -1.0,
	"worst":         -1.0,
	"hate":          -0.8,
	"expensive":     -0.5,
	"overpriced":    -0.6,
	"ripoff":        -0.8,
	"scam":          -0.8,
	"ridiculous":    -0.33,
	"insane":        -1.0,
	"crazy":         -0.6,
	"stupid":        -0.8,
	"useless":       -0.5,
	"unfair":        -0.5,
	"greedy":        -0.6,
	"sad":           -0.5,
	"unhappy":       -0.6,
	"angry":         -0.5,
	"annoying":      -0.8,
	"disappointed":  -0.75,
	"disappointing": -0.6,
}

var intensifiers = map[string]float64{
	"very":       1.3,
	"really":     1.3,
	"so":         1.2,
	"quite":      1.1,
	"super":      1.4,
	"extremely":  1.5,
	"incredibly": 1.5,
	"absolutely": 1.5,
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "nothing": true, "hardly": true,
	"don't": true, "doesn't": true, "didn't": true, "isn't": true, "wasn't": true,
	"aren't": true, "can't": true, "won't": true, "wouldn't": true, "dont": true,
}

// 否定词只影响其后三个 token 之内的第一个情感词。
const negationWindow = 3

// LexiconEstimator 是内置的词典极性估计器：对命中的情感词取平均，
// 程度副词放大下一个情感词，否定词把它乘以 -0.5，感叹号略微放大整体幅度。
type LexiconEstimator struct {
	lexicon map[string]float64
}

// NewLexiconEstimator 用默认词典创建估计器，overrides 中的词条覆盖或补充默认值。
func NewLexiconEstimator(overrides map[string]float64) *LexiconEstimator {
	lexicon := make(map[string]float64, len(defaultLexicon)+len(overrides))
	for w, p := range defaultLexicon {
		lexicon[w] = p
	}
	for w, p := range overrides {
		lexicon[strings.ToLower(w)] = clamp(p)
	}
	return &LexiconEstimator{lexicon: lexicon}
}

// Polarity 实现 Estimator。空文本或没有情感词时返回 0。
func (e *LexiconEstimator) Polarity(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var (
		scores    []float64
		intensity = 1.0
		negateFor = 0
	)
	for _, tok := range words(text) {
		if negators[tok] {
			negateFor = negationWindow
			continue
		}
		if f, ok := intensifiers[tok]; ok {
			intensity *= f
			continue
		}
		if p, ok := e.lexicon[tok]; ok {
			p *= intensity
			if negateFor > 0 {
				p *= -0.5
			}
			scores = append(scores, clamp(p))
			intensity, negateFor = 1.0, 0
			continue
		}
		intensity = 1.0
		if negateFor > 0 {
			negateFor--
		}
	}
	if len(scores) == 0 {
		return 0, nil
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	avg := sum / float64(len(scores))
	if n := strings.Count(text, "!"); n > 0 {
		if n > 3 {
			n = 3
		}
		avg *= 1 + 0.1*float64(n)
	}
	return clamp(avg), nil
}

// words 按字母和撇号切词并转小写，"Don't" 保留为 "don't"。
func words(text string) []string {
	normalized := strings.ReplaceAll(strings.ToLower(text), "’", "'")
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}
