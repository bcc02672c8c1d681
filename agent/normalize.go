package agent

import (
	"encoding/json"
	"strconv"
	"strings"

	"flowplan/domain/tree"
)

// DefaultNodeTitle substitutes a blank or missing step title.
const DefaultNodeTitle = "Step"

// ParsedWorkflow is the validated shape of a provider reply. Field names
// follow the reply schema (snake_case), not the REST surface.
type ParsedWorkflow struct {
	Template ParsedTemplate `json:"template"`
	Workflow *ParsedRun     `json:"workflow,omitempty"`
}

type ParsedTemplate struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Nodes       []ParsedNode `json:"nodes"`
}

type ParsedNode struct {
	Title         string       `json:"title"`
	DueOffsetDays int          `json:"due_offset_days"`
	Children      []ParsedNode `json:"children"`
}

type ParsedRun struct {
	Title   string `json:"title,omitempty"`
	DueDate string `json:"due_date,omitempty"`
	Start   bool   `json:"start,omitempty"`
}

// NormalizeTree sanitizes an untrusted candidate node list: titles become
// non-empty strings, offsets become integers (0 on any conversion failure),
// children default to an empty list and are truncated below the depth cap.
// It never fails, and normalizing an already-normalized tree is a no-op.
func NormalizeTree(rawNodes []interface{}) []ParsedNode {
	nodes := []ParsedNode{}
	for _, raw := range rawNodes {
		nodes = append(nodes, normalizeNode(raw, 1))
	}
	return nodes
}

func normalizeNode(raw interface{}, depth int) ParsedNode {
	node := ParsedNode{Title: DefaultNodeTitle, Children: []ParsedNode{}}
	fields, ok := raw.(map[string]interface{})
	if !ok {
		return node
	}

	node.Title = coerceTitle(fields["title"])
	node.DueOffsetDays = coerceInt(fields["due_offset_days"])
	if depth >= tree.MaxDepth {
		return node
	}
	if children, ok := fields["children"].([]interface{}); ok {
		for _, child := range children {
			node.Children = append(node.Children, normalizeNode(child, depth+1))
		}
	}
	return node
}

func coerceTitle(value interface{}) string {
	text := ""
	switch v := value.(type) {
	case nil:
	case string:
		text = v
	case float64:
		text = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		text = strconv.FormatBool(v)
	default:
		if bytes, err := json.Marshal(v); err == nil {
			text = string(bytes)
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultNodeTitle
	}
	return text
}

func coerceInt(value interface{}) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	case json.Number:
		if parsed, err := strconv.Atoi(v.String()); err == nil {
			return parsed
		}
	}
	return 0
}

func looseString(value interface{}) string {
	if text, ok := value.(string); ok {
		return text
	}
	return ""
}

func looseBool(value interface{}) bool {
	if flag, ok := value.(bool); ok {
		return flag
	}
	return false
}
