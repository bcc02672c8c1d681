package agent

// ModelPrice holds per-million-token prices in USD.
type ModelPrice struct {
	Input  float64
	Output float64
}

const fallbackPriceModel = "openai/gpt-3.5-turbo"

// modelPricing approximates the OpenRouter price list; unknown models fall
// back to the gpt-3.5-turbo row.
var modelPricing = map[string]ModelPrice{
	"openai/gpt-3.5-turbo":             {Input: 0.5, Output: 1.5},
	"openai/gpt-3.5-turbo-16k":         {Input: 3.0, Output: 4.0},
	"openai/gpt-4":                     {Input: 30.0, Output: 60.0},
	"openai/gpt-4-turbo":               {Input: 10.0, Output: 30.0},
	"openai/gpt-4o":                    {Input: 5.0, Output: 15.0},
	"openai/gpt-4o-mini":               {Input: 0.15, Output: 0.6},
	"anthropic/claude-3-opus":          {Input: 15.0, Output: 75.0},
	"anthropic/claude-3-sonnet":        {Input: 3.0, Output: 15.0},
	"anthropic/claude-3-haiku":         {Input: 0.25, Output: 1.25},
	"anthropic/claude-3.5-sonnet":      {Input: 3.0, Output: 15.0},
	"google/gemini-pro":                {Input: 0.125, Output: 0.375},
	"google/gemini-pro-1.5":            {Input: 2.5, Output: 7.5},
	"meta-llama/llama-3-70b-instruct":  {Input: 0.8, Output: 0.8},
	"meta-llama/llama-3-8b-instruct":   {Input: 0.1, Output: 0.1},
	"mistralai/mixtral-8x7b-instruct":  {Input: 0.6, Output: 0.6},
	"openai/gpt-oss-120b":              {Input: 0.0, Output: 0.0},
}

func PriceOfModel(model string) ModelPrice {
	if price, found := modelPricing[model]; found {
		return price
	}
	return modelPricing[fallbackPriceModel]
}

// Cost approximates the monetary cost of one call from the provider's
// reported token usage.
func Cost(model string, inputTokens, outputTokens int) float64 {
	price := PriceOfModel(model)
	return (float64(inputTokens)*price.Input + float64(outputTokens)*price.Output) / 1_000_000
}
