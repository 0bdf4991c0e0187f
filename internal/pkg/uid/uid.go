package uid

// NumberID generates sortable int64 identifiers for database rows.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers such as correlation ids and object keys.
type StringID interface {
	Generate() string
}
