package chunk

import "github.com/b2io/b2core/errs"

// Dictionary holds the bytes produced by TrainDictionary. Compress does not
// take a dictionary: no chunk written by this package carries one, and the
// chunk header has no dictionary-length field.
type Dictionary struct {
	Bytes []byte
}

// MaxDictionarySize bounds how large a trained dictionary may be, matching
// the chunk layer's preference for small, block-sized dictionaries over
// ones that rival the chunk itself.
const MaxDictionarySize = 64 * 1024

// TrainDictionary builds a Dictionary from a set of representative block
// samples. This implementation takes the simple, allocation-bounded
// approach of concatenating truncated samples up to MaxDictionarySize
// rather than running a full zstd COVER/fastCover search. No codec in
// package codec consumes the result.
func TrainDictionary(samples [][]byte) (*Dictionary, error) {
	if len(samples) == 0 {
		return nil, errs.ErrInvalidArgument
	}

	budgetPerSample := MaxDictionarySize / len(samples)
	if budgetPerSample == 0 {
		budgetPerSample = 1
	}

	dict := make([]byte, 0, MaxDictionarySize)

	for _, s := range samples {
		take := len(s)
		if take > budgetPerSample {
			take = budgetPerSample
		}

		if len(dict)+take > MaxDictionarySize {
			take = MaxDictionarySize - len(dict)
		}

		dict = append(dict, s[:take]...)

		if len(dict) >= MaxDictionarySize {
			break
		}
	}

	return &Dictionary{Bytes: dict}, nil
}
