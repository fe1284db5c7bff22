package realtime

import (
	"sort"

	"travelbook/services/support-api/internal/domain/chat"
)

// MergeMessages combines a history snapshot with messages that arrived
// live while the snapshot was loading. Duplicates are collapsed by
// public id and the result is in conversation order, oldest first.
func MergeMessages(snapshot, live []*chat.Message) []*chat.Message {
	seen := make(map[string]struct{}, len(snapshot)+len(live))
	merged := make([]*chat.Message, 0, len(snapshot)+len(live))

	for _, m := range snapshot {
		if _, dup := seen[m.PublicID]; dup {
			continue
		}
		seen[m.PublicID] = struct{}{}
		merged = append(merged, m)
	}
	for _, m := range live {
		if _, dup := seen[m.PublicID]; dup {
			continue
		}
		seen[m.PublicID] = struct{}{}
		merged = append(merged, m)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Before(merged[j])
	})
	return merged
}
