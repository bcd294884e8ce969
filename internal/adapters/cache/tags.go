package cache

import "sync"

// TagIndex maps logical tags (e.g. "stations", "station-42") to the cache
// keys that should be invalidated together. It only tracks membership; the
// owning cache removes the entries.
type TagIndex struct {
	mutex     sync.Mutex
	keysByTag map[string]map[string]struct{}
	tagsByKey map[string]map[string]struct{}
}

func NewTagIndex() *TagIndex {
	return &TagIndex{
		keysByTag: make(map[string]map[string]struct{}),
		tagsByKey: make(map[string]map[string]struct{}),
	}
}

func (t *TagIndex) Tag(key string, tags ...string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for _, tag := range tags {
		if t.keysByTag[tag] == nil {
			t.keysByTag[tag] = make(map[string]struct{})
		}
		t.keysByTag[tag][key] = struct{}{}

		if t.tagsByKey[key] == nil {
			t.tagsByKey[key] = make(map[string]struct{})
		}
		t.tagsByKey[key][tag] = struct{}{}
	}
}

// Keys returns the union of keys tagged with any of the given tags.
func (t *TagIndex) Keys(tags ...string) []string {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	seen := make(map[string]struct{})
	keys := []string{}
	for _, tag := range tags {
		for key := range t.keysByTag[tag] {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}

// RemoveKey drops a key from every tag it belongs to. Wired as the cache's
// eviction callback so the index never outgrows the cache.
func (t *TagIndex) RemoveKey(key string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for tag := range t.tagsByKey[key] {
		delete(t.keysByTag[tag], key)
		if len(t.keysByTag[tag]) == 0 {
			delete(t.keysByTag, tag)
		}
	}
	delete(t.tagsByKey, key)
}
