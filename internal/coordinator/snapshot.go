package coordinator

import "github.com/orcd/orcd/internal/model"

// BacklogSnapshot is an immutable clone of the backlog's items plus the
// metadata needed by the scheduler and CLI, taken at command-processing
// time. Mutating a snapshot never affects the Coordinator's live state.
type BacklogSnapshot struct {
	SchemaVersion int
	NextItemID    int
	Items         []model.Item
}

// ItemByID returns a copy of the item with the given ID, or false.
func (s BacklogSnapshot) ItemByID(id string) (model.Item, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

// IndexByID builds a lookup map from item ID to item, the shape the
// dependency package's predicates expect.
func (s BacklogSnapshot) IndexByID() map[string]model.Item {
	m := make(map[string]model.Item, len(s.Items))
	for _, it := range s.Items {
		m[it.ID] = it
	}
	return m
}

func (c *Coordinator) snapshotLocked() BacklogSnapshot {
	clone := c.backlog.Clone()
	return BacklogSnapshot{
		SchemaVersion: clone.SchemaVersion,
		NextItemID:    clone.NextItemID,
		Items:         clone.Items,
	}
}
