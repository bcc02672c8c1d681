package agent

import (
	"encoding/json"
	"strings"
)

// ExtractObject parses the provider reply into one JSON object. A direct
// parse of the full text is attempted first; on failure the span from the
// first '{' to the last '}' is tried instead. The raw text is never
// discarded: callers wrap failures with it for diagnostics.
func ExtractObject(content string) (map[string]interface{}, bool) {
	object := map[string]interface{}{}
	if err := json.Unmarshal([]byte(content), &object); err == nil {
		return object, true
	}

	begin := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if begin < 0 || end <= begin {
		return nil, false
	}
	object = map[string]interface{}{}
	if err := json.Unmarshal([]byte(content[begin:end+1]), &object); err != nil {
		return nil, false
	}
	return object, true
}
