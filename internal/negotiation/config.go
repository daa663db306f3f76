// Package negotiation 实现了基于规则的议价决策引擎。
//
// 引擎把 (用户消息, 情感分数) 映射为一条预置的回复文本：先做基础咨询检测，
// 再按情感档位走价格阶梯，最后兜底。引擎本身无状态，相同输入总是得到相同输出。
package negotiation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidConfig 表示议价配置未通过校验。
var ErrInvalidConfig = errors.New("invalid negotiation config")

// MatchMode 决定价格触发词的匹配方式。
type MatchMode string

const (
	// MatchToken 只匹配独立的数字 token 和完整的单词序列。
	MatchToken MatchMode = "token"
	// MatchSubstring 按原始子串包含匹配，"11200" 也会命中 "120"。
	MatchSubstring MatchMode = "substring"
)

// Config 是议价引擎的全部可调参数，启动时校验一次。
type Config struct {
	ListingPrice      int             `mapstructure:"listing_price"`
	FloorPrice        int             `mapstructure:"floor_price"`
	AcceptOffer       int             `mapstructure:"accept_offer"`
	LowOffer          int             `mapstructure:"low_offer"`
	CounterPrice      int             `mapstructure:"counter_price"`
	PositiveThreshold float64         `mapstructure:"positive_threshold"`
	NegativeThreshold float64         `mapstructure:"negative_threshold"`
	Matching          MatchMode       `mapstructure:"matching"`
	ResponseTemplates map[Rule]string `mapstructure:"response_templates"`
}

// DefaultConfig 返回蓝牙音箱的默认议价参数。
func DefaultConfig() Config {
	return Config{
		ListingPrice:      150,
		FloorPrice:        100,
		AcceptOffer:       120,
		LowOffer:          70,
		CounterPrice:      130,
		PositiveThreshold: 0.2,
		NegativeThreshold: -0.2,
		Matching:          MatchToken,
		ResponseTemplates: DefaultTemplates(),
	}
}

// DefaultTemplates 返回每条规则的默认回复模板。
// 模板中的 {listing_price} 等占位符在引擎创建时替换为配置中的价格。
func DefaultTemplates() map[Rule]string {
	return map[Rule]string{
		RuleWarranty:           "The Bluetooth speaker comes with a 1-year warranty.",
		RuleFeatures:           "This Bluetooth speaker features high-quality sound, Bluetooth 5.0 connectivity, a 12-hour battery life, and water resistance.",
		RulePositiveAccept:     "I appreciate your offer of ${accept_offer}. I can accept it, and we have a deal!",
		RulePositiveCounter:    "Thank you for your positive tone! I can offer you the speaker for ${counter_price}.",
		RuleNegativeFloor:      "I understand you're not satisfied, but ${listing_price} is the lowest we can go. Let me know if you'd like to proceed.",
		RuleNeutralLowReject:   "Your offer of ${low_offer} is quite low. The minimum acceptable price is ${floor_price}. Can we try to meet closer to that?",
		RuleNeutralCounter:     "I can meet you at ${counter_price}. It's a great deal for this speaker!",
		RuleNeutralFloorAccept: "Your offer of ${floor_price} is acceptable. Let's finalize the deal!",
		RuleFallback:           "I’m not sure how to respond to that, but the speaker is ${counter_price}. Can we negotiate further?",
	}
}

// WithTemplateDefaults 用默认模板补齐未配置或为空的规则，不修改调用方的 map。
func (c Config) WithTemplateDefaults() Config {
	merged := DefaultTemplates()
	for rule, text := range c.ResponseTemplates {
		if strings.TrimSpace(text) != "" {
			merged[rule] = text
		}
	}
	c.ResponseTemplates = merged
	return c
}

// Validate 校验价格和阈值之间的约束关系。
func (c Config) Validate() error {
	var problems []string
	if c.LowOffer <= 0 || c.FloorPrice <= 0 || c.ListingPrice <= 0 {
		problems = append(problems, "prices must be positive")
	}
	if c.LowOffer >= c.FloorPrice {
		problems = append(problems, "low_offer must be below floor_price")
	}
	if c.FloorPrice > c.AcceptOffer || c.AcceptOffer > c.ListingPrice {
		problems = append(problems, "accept_offer must lie between floor_price and listing_price")
	}
	if c.FloorPrice > c.CounterPrice || c.CounterPrice > c.ListingPrice {
		problems = append(problems, "counter_price must lie between floor_price and listing_price")
	}
	if c.NegativeThreshold < -1 || c.PositiveThreshold > 1 || c.NegativeThreshold > c.PositiveThreshold {
		problems = append(problems, "thresholds must satisfy -1 <= negative_threshold <= positive_threshold <= 1")
	}
	if c.Matching != MatchToken && c.Matching != MatchSubstring {
		problems = append(problems, fmt.Sprintf("unknown matching mode %q", c.Matching))
	}
	for _, rule := range Rules() {
		if strings.TrimSpace(c.ResponseTemplates[rule]) == "" {
			problems = append(problems, fmt.Sprintf("missing response template for %s", rule))
		}
	}
	for rule := range c.ResponseTemplates {
		if !rule.known() {
			problems = append(problems, fmt.Sprintf("unknown response template %q", rule))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// TierOf 按严格的大于/小于比较把分数划入档位，阈值本身属于中性档。
func (c Config) TierOf(score float64) Tier {
	switch {
	case score > c.PositiveThreshold:
		return TierPositive
	case score < c.NegativeThreshold:
		return TierNegative
	default:
		return TierNeutral
	}
}

func (c Config) render(tmpl string) string {
	return strings.NewReplacer(
		"{listing_price}", strconv.Itoa(c.ListingPrice),
		"{floor_price}", strconv.Itoa(c.FloorPrice),
		"{accept_offer}", strconv.Itoa(c.AcceptOffer),
		"{low_offer}", strconv.Itoa(c.LowOffer),
		"{counter_price}", strconv.Itoa(c.CounterPrice),
	).Replace(tmpl)
}
