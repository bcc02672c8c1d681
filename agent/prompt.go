package agent

// SystemPrompt pins the exact JSON shape the provider is expected to emit.
// The reply schema uses snake_case field names; ParsedWorkflow mirrors them.
const SystemPrompt = "You are a helpful assistant that extracts structured workflow templates from a short German or English description. " +
	"Return ONLY a compact JSON object following this JSON Schema, with no markdown fences, no extra text.\n" +
	"Schema: {\n" +
	"  \"template\": {\n" +
	"    \"title\": string,\n" +
	"    \"description\": string (optional),\n" +
	"    \"nodes\": [ Node ]\n" +
	"  },\n" +
	"  \"workflow\": {\n" +
	"    \"title\": string (optional),\n" +
	"    \"due_date\": string in YYYY-MM-DD (optional),\n" +
	"    \"start\": boolean (default false)\n" +
	"  }\n" +
	"}\n" +
	"Node: { \"title\": string, \"due_offset_days\": integer (optional), \"children\": [Node] (optional) }\n" +
	"Guidelines: Titles should be short. If user mentions phases/subtasks/deadlines, map them to nodes with due_offset_days (days before end). " +
	"If the user mentions an end date, set workflow.due_date. If they say 'start now', set workflow.start=true."

const DefaultModel = "openai/gpt-4o-mini"
