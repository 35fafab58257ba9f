package tokenizer

// MergeEntry replaces every adjacent, non-overlapping occurrence of pair in
// entry with the merged symbol, scanning left to right and resuming after
// each replacement. Symbols are compared whole. The input is never modified;
// when nothing matches the same entry is returned with false.
func MergeEntry(pair Pair, entry Entry) (Entry, bool) {
	var merged Entry
	for i := 0; i < len(entry); i++ {
		if i+1 < len(entry) && entry[i] == pair.Left && entry[i+1] == pair.Right {
			if merged == nil {
				merged = make(Entry, i, len(entry)-1)
				copy(merged, entry[:i])
			}

			merged = append(merged, pair.Merged())
			i++
			continue
		}

		if merged != nil {
			merged = append(merged, entry[i])
		}
	}

	if merged == nil {
		return entry, false
	}

	return merged, true
}

// Merge applies MergeEntry to every entry and returns the resulting corpus.
// Entries without a match are shared with the input, which is left intact.
func Merge(pair Pair, corpus Corpus) Corpus {
	merged := make(Corpus, len(corpus))
	for i, entry := range corpus {
		merged[i], _ = MergeEntry(pair, entry)
	}

	return merged
}
