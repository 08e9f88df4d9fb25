package protocol

// ModelDescriptor selects one model for a session. ID is the request-scoped
// key used on every frame; ModelID is the provider's own model name.
type ModelDescriptor struct {
	ID       string `json:"id" binding:"required" jsonschema:"required,minLength=1"`
	Provider string `json:"provider" binding:"required" jsonschema:"required,minLength=1,example=groq"`
	ModelID  string `json:"modelId" binding:"required" jsonschema:"required,minLength=1,example=llama-3.3-70b-versatile"`
}

// StreamRequest is the body of POST /v1/chat/stream. An empty Models list
// is valid; a missing or null one is not.
type StreamRequest struct {
	Query  string            `json:"query" binding:"required" jsonschema:"required,minLength=1"`
	Models []ModelDescriptor `json:"models" binding:"required,dive" jsonschema:"required"`
}

// CatalogModel is one entry of GET /v1/models.
type CatalogModel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	ModelID  string `json:"modelId"`
}

// Descriptor returns the request descriptor for the catalogue entry.
func (m CatalogModel) Descriptor() ModelDescriptor {
	return ModelDescriptor{ID: m.ID, Provider: m.Provider, ModelID: m.ModelID}
}

// CatalogResponse is the body of GET /v1/models.
type CatalogResponse struct {
	Object string         `json:"object"`
	Data   []CatalogModel `json:"data"`
}
