package agent_test

import (
	"testing"

	"flowplan/agent"

	. "github.com/onsi/gomega"
)

func TestExtractObject(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should parse a bare json object", func(t *testing.T) {
		object, ok := agent.ExtractObject(`{"template": {"title": "Onboarding", "nodes": []}}`)
		Expect(ok).To(BeTrue())
		template := object["template"].(map[string]interface{})
		Expect(template["title"]).To(Equal("Onboarding"))
	})

	t.Run("should extract the object out of surrounding prose", func(t *testing.T) {
		content := "Sure! Here is the workflow you asked for:\n```json\n" +
			`{"template": {"title": "Onboarding", "nodes": [{"title": "Contract"}]}}` +
			"\n```\nLet me know if you need changes."
		object, ok := agent.ExtractObject(content)
		Expect(ok).To(BeTrue())
		template := object["template"].(map[string]interface{})
		Expect(template["title"]).To(Equal("Onboarding"))
		nodes := template["nodes"].([]interface{})
		Expect(len(nodes)).To(Equal(1))
	})

	t.Run("should fail on prose without any object", func(t *testing.T) {
		_, ok := agent.ExtractObject("I cannot build a workflow from that request.")
		Expect(ok).To(BeFalse())
	})

	t.Run("should fail when the brace span is not valid json", func(t *testing.T) {
		_, ok := agent.ExtractObject("this {is not} json either {")
		Expect(ok).To(BeFalse())
	})

	t.Run("should fail on empty content", func(t *testing.T) {
		_, ok := agent.ExtractObject("")
		Expect(ok).To(BeFalse())
	})
}
