package model

// InboxItem is a simplified, write-only input record humans drop into
// BACKLOG_INBOX.yaml. Unknown YAML fields are silently ignored by the
// decoder (no custom UnmarshalYAML needed — yaml.v3 already drops
// fields with no matching struct tag). Any "id" key in the source file
// is likewise ignored since InboxItem declares no id field at all.
type InboxItem struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description,omitempty"`
	Size         Size     `yaml:"size,omitempty"`
	Risk         Level    `yaml:"risk,omitempty"`
	Impact       Level    `yaml:"impact,omitempty"`
	PipelineType string   `yaml:"pipeline_type,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
}
