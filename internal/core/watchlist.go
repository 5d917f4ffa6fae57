package core

import (
	"slices"
	"sync"
)

// WatchList is the session's "My List", in the order movies were added.
type WatchList struct {
	mu  sync.Mutex
	ids []int64
}

func NewWatchList() *WatchList {
	return &WatchList{}
}

// Toggle adds id if absent and removes it otherwise. It reports whether id
// is in the list afterwards.
func (w *WatchList) Toggle(id int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i := slices.Index(w.ids, id); i >= 0 {
		w.ids = slices.Delete(w.ids, i, i+1)
		return false
	}
	w.ids = append(w.ids, id)
	return true
}

func (w *WatchList) Contains(id int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Contains(w.ids, id)
}

func (w *WatchList) IDs() []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.ids)
}
