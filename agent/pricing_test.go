package agent_test

import (
	"testing"

	"flowplan/agent"

	. "github.com/onsi/gomega"
)

func TestCost(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should price a known model per million tokens", func(t *testing.T) {
		// gpt-4o-mini: 0.15 in / 0.6 out per million
		Expect(agent.Cost("openai/gpt-4o-mini", 1_000_000, 1_000_000)).To(BeNumerically("~", 0.75, 1e-9))
		Expect(agent.Cost("openai/gpt-4o-mini", 2000, 500)).To(BeNumerically("~", 0.0006, 1e-9))
	})

	t.Run("should fall back to the gpt-3.5-turbo row for unknown models", func(t *testing.T) {
		Expect(agent.PriceOfModel("vendor/imaginary-model")).To(Equal(agent.PriceOfModel("openai/gpt-3.5-turbo")))
		Expect(agent.Cost("vendor/imaginary-model", 1000, 1000)).To(BeNumerically("~", 0.002, 1e-9))
	})

	t.Run("should cost nothing for zero usage", func(t *testing.T) {
		Expect(agent.Cost("openai/gpt-4", 0, 0)).To(BeZero())
	})
}
