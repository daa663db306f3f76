package negotiation

import "strings"

var featurePhrases = []string{"features", "tell me about", "what can you tell me"}

// Engine 是议价决策引擎。创建后只读，可被多个 goroutine 并发使用。
type Engine struct {
	cfg     Config
	matcher Matcher
	texts   map[Rule]string

	lowOffer    Trigger
	acceptOffer Trigger
	floorOffer  Trigger
}

// NewEngine 补齐默认模板、校验配置并渲染全部回复文本。
func NewEngine(cfg Config) (*Engine, error) {
	cfg = cfg.WithTemplateDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	matcher, err := NewMatcher(cfg.Matching)
	if err != nil {
		return nil, err
	}
	texts := make(map[Rule]string, len(cfg.ResponseTemplates))
	for rule, tmpl := range cfg.ResponseTemplates {
		texts[rule] = cfg.render(tmpl)
	}
	return &Engine{
		cfg:         cfg,
		matcher:     matcher,
		texts:       texts,
		lowOffer:    NewTrigger(cfg.LowOffer),
		acceptOffer: NewTrigger(cfg.AcceptOffer),
		floorOffer:  NewTrigger(cfg.FloorPrice),
	}, nil
}

// Text 返回某条规则渲染后的回复文本。
func (e *Engine) Text(rule Rule) string {
	return e.texts[rule]
}

// ListingPrice 返回标价，买家报价不会超过它。
func (e *Engine) ListingPrice() int {
	return e.cfg.ListingPrice
}

// Decide 按 基础咨询 -> 情感价格阶梯 -> 兜底 的顺序求值，第一条命中的规则决定回复。
func (e *Engine) Decide(message string, score float64) Decision {
	if d, ok := e.Enquiry(message); ok {
		return d
	}
	if d, ok := e.PriceLadder(message, score); ok {
		return d
	}
	return e.decision(RuleFallback, e.cfg.TierOf(score), OutcomeFallback, e.cfg.CounterPrice)
}

// Enquiry 检测保修和产品特性类咨询。命中时不需要情感分数。
func (e *Engine) Enquiry(message string) (Decision, bool) {
	lower := strings.ToLower(message)
	if containsPhrase(lower, "warranty") {
		return e.decision(RuleWarranty, "", OutcomeAnswer, 0), true
	}
	if containsPhrase(lower, featurePhrases...) {
		return e.decision(RuleFeatures, "", OutcomeAnswer, 0), true
	}
	return Decision{}, false
}

// PriceLadder 根据情感档位匹配价格规则。中性档没有命中任何价格时返回 false。
func (e *Engine) PriceLadder(message string, score float64) (Decision, bool) {
	tier := e.cfg.TierOf(score)
	switch tier {
	case TierPositive:
		if e.matcher.Match(message, e.acceptOffer) {
			return e.decision(RulePositiveAccept, tier, OutcomeAccept, e.cfg.AcceptOffer), true
		}
		return e.decision(RulePositiveCounter, tier, OutcomeCounter, e.cfg.CounterPrice), true
	case TierNegative:
		return e.decision(RuleNegativeFloor, tier, OutcomeReject, e.cfg.ListingPrice), true
	}

	switch {
	case e.matcher.Match(message, e.lowOffer):
		return e.decision(RuleNeutralLowReject, tier, OutcomeReject, e.cfg.FloorPrice), true
	case e.matcher.Match(message, e.acceptOffer):
		return e.decision(RuleNeutralCounter, tier, OutcomeCounter, e.cfg.CounterPrice), true
	case e.matcher.Match(message, e.floorOffer):
		return e.decision(RuleNeutralFloorAccept, tier, OutcomeAccept, e.cfg.FloorPrice), true
	}
	return Decision{}, false
}

func (e *Engine) decision(rule Rule, tier Tier, outcome Outcome, price int) Decision {
	return Decision{
		Rule:    rule,
		Tier:    tier,
		Outcome: outcome,
		Price:   price,
		Text:    e.texts[rule],
	}
}
