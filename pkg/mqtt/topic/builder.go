package topic

import (
	"fmt"
	"strings"
)

// Builder constructs MQTT topic strings of the form {root}/{segment}/{id}.
type Builder struct {
	// root is the base namespace for all topics (e.g., "rover/v1").
	root string
}

// NewBuilder creates a Builder for the given root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.TrimSuffix(root, "/")}
}

// Build returns {root}/{segment}/{id}.
func (b *Builder) Build(segment, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, segment, id)
}

// Wildcard returns {root}/{segment}/+, matching the segment for every rover.
func (b *Builder) Wildcard(segment string) string {
	return b.Build(segment, "+")
}
