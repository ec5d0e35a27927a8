package model

// CurrentSchemaVersion is the schema version this build expects on disk
// after load() has run its migration chain to completion.
const CurrentSchemaVersion = 3

// BacklogFile is the persistent container for all backlog items.
type BacklogFile struct {
	SchemaVersion int    `yaml:"schema_version"`
	NextItemID    int    `yaml:"next_item_id"`
	Items         []Item `yaml:"items"`
}

// IndexByID returns the index of the item with the given ID, or -1.
func (b *BacklogFile) IndexByID(id string) int {
	for i := range b.Items {
		if b.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// ItemByID returns a pointer to the item with the given ID, or nil.
func (b *BacklogFile) ItemByID(id string) *Item {
	idx := b.IndexByID(id)
	if idx < 0 {
		return nil
	}
	return &b.Items[idx]
}

// Clone returns a deep copy of the backlog file.
func (b *BacklogFile) Clone() *BacklogFile {
	cp := &BacklogFile{
		SchemaVersion: b.SchemaVersion,
		NextItemID:    b.NextItemID,
	}
	cp.Items = make([]Item, len(b.Items))
	for i, it := range b.Items {
		cp.Items[i] = it.Clone()
	}
	return cp
}
