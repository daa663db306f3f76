package negotiation

// Greeting 是信息接口返回的固定问候语。
const Greeting = "Welcome to the Bluetooth speaker negotiation bot!"

const openingTemplate = "Welcome to our negotiation chatbot! We are currently offering a high-quality Bluetooth speaker for ${listing_price}. " +
	"Feel free to make an offer, and we can discuss the price. " +
	"The minimum acceptable offer is ${floor_price}. If you are polite, we may offer a better deal. " +
	"Let's start the negotiation!"

// OpeningPrompt 返回会话的开场白，价格取自配置。
func (e *Engine) OpeningPrompt() string {
	return e.cfg.render(openingTemplate)
}
