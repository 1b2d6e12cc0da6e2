package common

// Response structures
type Response struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data"`
	Metadata *Metadata   `json:"metadata,omitempty"`
	Error    *APIError   `json:"error,omitempty"`
}

type Metadata struct {
	Total int64 `json:"total"`
	Count int64 `json:"count"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

// FactoryInfo describes one persistence-context factory definition.
type FactoryInfo struct {
	Name       string `json:"name"`
	Registry   string `json:"registry"`
	Type       string `json:"type"`
	ObjectType string `json:"object_type,omitempty"`
	Factory    bool   `json:"factory"`
}

// ManagedTypeInfo describes one managed type of a metamodel.
type ManagedTypeInfo struct {
	Type         string   `json:"type"`
	SingleID     bool     `json:"single_id"`
	IDAttributes []string `json:"id_attributes"`
}

// IDAttributeCheck is the answer to a single-id attribute query.
type IDAttributeCheck struct {
	Entity    string `json:"entity"`
	Attribute string `json:"attribute"`
	Type      string `json:"type"`
	Match     bool   `json:"match"`
}
