package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Sum computes the xxHash64 digest of the concatenation of one or more byte
// sections, returned as an 8-byte slice. Used by package frame to fingerprint
// a frame's header/data/offset-table region without requiring callers to
// concatenate the sections first.
func Sum(sections ...[]byte) []byte {
	d := xxhash.New()
	for _, s := range sections {
		d.Write(s)
	}

	return d.Sum(nil)
}
