package domain

// ModelRef pairs a remote model identifier with its name.
type ModelRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
