package negotiation

// Tier 是情感分数所在的档位。
type Tier string

const (
	TierPositive Tier = "positive"
	TierNeutral  Tier = "neutral"
	TierNegative Tier = "negative"
)

// Rule 标识产生回复的那条规则，同时也是回复模板的键。
type Rule string

const (
	RuleWarranty           Rule = "warranty"
	RuleFeatures           Rule = "features"
	RulePositiveAccept     Rule = "positive_accept"
	RulePositiveCounter    Rule = "positive_counter"
	RuleNegativeFloor      Rule = "negative_floor"
	RuleNeutralLowReject   Rule = "neutral_low_reject"
	RuleNeutralCounter     Rule = "neutral_counter"
	RuleNeutralFloorAccept Rule = "neutral_floor_accept"
	RuleFallback           Rule = "fallback"
)

// Rules 按阶梯顺序返回全部规则。
func Rules() []Rule {
	return []Rule{
		RuleWarranty,
		RuleFeatures,
		RulePositiveAccept,
		RulePositiveCounter,
		RuleNegativeFloor,
		RuleNeutralLowReject,
		RuleNeutralCounter,
		RuleNeutralFloorAccept,
		RuleFallback,
	}
}

func (r Rule) known() bool {
	for _, rule := range Rules() {
		if rule == r {
			return true
		}
	}
	return false
}

// Outcome 是回复在议价意义上的结果。
type Outcome string

const (
	OutcomeAnswer   Outcome = "answer"
	OutcomeAccept   Outcome = "accept"
	OutcomeCounter  Outcome = "counter"
	OutcomeReject   Outcome = "reject"
	OutcomeFallback Outcome = "fallback"
)

// Decision 是引擎对一条消息的判定结果。
// Tier 在基础咨询命中时为空，因为此时不参考情感分数。
// Price 是回复中报出或接受的价格，咨询类回复为 0。
type Decision struct {
	Rule    Rule    `json:"rule"`
	Tier    Tier    `json:"tier,omitempty"`
	Outcome Outcome `json:"outcome"`
	Price   int     `json:"price,omitempty"`
	Text    string  `json:"text"`
}
