package schunk

import "github.com/b2io/b2core/errs"

// AddMeta creates a fixed metadata layer named name with content data. Fixed
// metadata layers freeze after the first chunk is appended — attempting to
// add one once the super-chunk has left the empty state fails with
// ErrFrozenMetadata, mirroring the spec's "fixed metadata layers are
// allocated once and sized at creation time" rule.
func (sc *SChunk) AddMeta(name string, data []byte) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.state != StateEmpty {
		return errs.ErrFrozenMetadata
	}

	if _, exists := sc.fixedMeta[name]; exists {
		return errs.ErrDuplicateName
	}

	sc.fixedMeta[name] = append([]byte(nil), data...)

	return nil
}

// UpdateMeta overwrites an existing fixed metadata layer's content. The new
// content must be the same length as the original: fixed metadata layers
// don't reflow the chunks that follow them.
func (sc *SChunk) UpdateMeta(name string, data []byte) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	cur, ok := sc.fixedMeta[name]
	if !ok {
		return errs.ErrNotFound
	}

	if len(data) != len(cur) {
		return errs.ErrInvalidArgument
	}

	sc.fixedMeta[name] = append([]byte(nil), data...)

	return nil
}

// GetMeta returns a fixed metadata layer's content.
func (sc *SChunk) GetMeta(name string) ([]byte, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	data, ok := sc.fixedMeta[name]
	if !ok {
		return nil, errs.ErrNotFound
	}

	return data, nil
}

// MetaExists reports whether a fixed metadata layer named name exists.
func (sc *SChunk) MetaExists(name string) bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	_, ok := sc.fixedMeta[name]

	return ok
}

// MetaNames returns the names of every fixed metadata layer.
func (sc *SChunk) MetaNames() []string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	names := make([]string, 0, len(sc.fixedMeta))
	for n := range sc.fixedMeta {
		names = append(names, n)
	}

	return names
}

// SetVLMeta creates or overwrites a variable-length metadata entry. Unlike
// fixed metadata, vlmeta entries may be added, resized, or removed at any
// point in the super-chunk's lifetime (short of being sealed).
func (sc *SChunk) SetVLMeta(name string, data []byte) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.checkWritable(); err != nil {
		return err
	}

	sc.vlMeta[name] = append([]byte(nil), data...)

	return nil
}

// GetVLMeta returns a variable-length metadata entry's content.
func (sc *SChunk) GetVLMeta(name string) ([]byte, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	data, ok := sc.vlMeta[name]
	if !ok {
		return nil, errs.ErrNotFound
	}

	return data, nil
}

// DeleteVLMeta removes a variable-length metadata entry.
func (sc *SChunk) DeleteVLMeta(name string) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if err := sc.checkWritable(); err != nil {
		return err
	}

	if _, ok := sc.vlMeta[name]; !ok {
		return errs.ErrNotFound
	}

	delete(sc.vlMeta, name)

	return nil
}

// VLMetaExists reports whether a variable-length metadata entry named name
// exists.
func (sc *SChunk) VLMetaExists(name string) bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	_, ok := sc.vlMeta[name]

	return ok
}

// VLMetaNames returns the names of every variable-length metadata entry.
func (sc *SChunk) VLMetaNames() []string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	names := make([]string, 0, len(sc.vlMeta))
	for n := range sc.vlMeta {
		names = append(names, n)
	}

	return names
}
