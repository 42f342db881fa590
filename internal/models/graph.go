package models

// NodeKind distinguishes disease nodes from symptom nodes.
type NodeKind string

const (
	NodeKindDisease NodeKind = "disease"
	NodeKindSymptom NodeKind = "symptom"
)

// GraphPayload is the generic node/link structure returned with an analysis.
type GraphPayload struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

type GraphNode struct {
	ID         string                 `json:"id"`
	Label      string                 `json:"label"`
	Kind       NodeKind               `json:"type"`
	IsInput    bool                   `json:"is_input,omitempty"`
	Attributes map[string]interface{} `json:"properties,omitempty"`
}

type GraphLink struct {
	Source       string                 `json:"source"`
	Target       string                 `json:"target"`
	Relationship string                 `json:"relationship"`
	Attributes   map[string]interface{} `json:"properties,omitempty"`
}

// BoolAttr reads a boolean attribute, false when absent or not a bool.
func BoolAttr(attrs map[string]interface{}, key string) bool {
	v, ok := attrs[key].(bool)
	return ok && v
}

// NumberAttr reads a numeric attribute. JSON numbers decode as float64.
func NumberAttr(attrs map[string]interface{}, key string) (float64, bool) {
	switch v := attrs[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
