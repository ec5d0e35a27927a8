package backlog

import "fmt"

// GenerateNextID reads the backlog's next_item_id high-water mark,
// formats it as "{prefix}-{counter:03d}", and returns the new ID along
// with the incremented counter. The caller must write the returned
// counter back to backlog.NextItemID before the ID is made visible to
// any other caller — only the Coordinator invokes this, so the update
// is implicitly serialized by the actor's single goroutine.
func GenerateNextID(nextItemID int, prefix string) (id string, nextCounter int) {
	id = fmt.Sprintf("%s-%03d", prefix, nextItemID)
	return id, nextItemID + 1
}
