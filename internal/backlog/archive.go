package backlog

import "github.com/orcd/orcd/internal/model"

// ArchiveDone removes every item with status "done" from the backlog
// and returns the archived item IDs. Archival is irreversible: the
// default implementation deletes rather than relocating to an archive
// file (a documented future extension). Because NextItemID is never
// decremented, an archived item's ID is never reissued.
func ArchiveDone(b *model.BacklogFile) []string {
	var archived []string
	kept := b.Items[:0]
	for _, it := range b.Items {
		if it.Status == model.StatusDone {
			archived = append(archived, it.ID)
			continue
		}
		kept = append(kept, it)
	}
	b.Items = kept
	return archived
}
