package model

// CoreValue is a named organizational trait that praise is tagged with,
// e.g. "Above and Beyond".
type CoreValue struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
