package zonesync

import "sort"

// Diff partitions ids of one zone into the three reconcile sets. Each set is
// sorted so processing never depends on snapshot order.
type Diff struct {
	Remove []string `json:"remove"`
	Update []string `json:"update"`
	Create []string `json:"create"`
}

func (d Diff) Empty() bool {
	return len(d.Remove) == 0 && len(d.Update) == 0 && len(d.Create) == 0
}

// ComputeDiff returns current−batch, current∩batch and batch−current.
func ComputeDiff(current, batch map[string]struct{}) Diff {
	var d Diff
	for id := range current {
		if _, ok := batch[id]; ok {
			d.Update = append(d.Update, id)
		} else {
			d.Remove = append(d.Remove, id)
		}
	}
	for id := range batch {
		if _, ok := current[id]; !ok {
			d.Create = append(d.Create, id)
		}
	}
	sort.Strings(d.Remove)
	sort.Strings(d.Update)
	sort.Strings(d.Create)
	return d
}
