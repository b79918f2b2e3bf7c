package embed

import "strings"

// ModelInfo is declarative capability metadata for an embedding model.
// Keeping this as a table keyed by model identifier (rather than name
// sniffing scattered through call sites) makes adding models a one-line
// change.
type ModelInfo struct {
	// NeedsPrefix indicates the model family is instruction-prefix
	// sensitive: queries and passages are prepended with "query: " /
	// "passage: " before encoding.
	NeedsPrefix bool

	// Multilingual indicates the model can match queries and passages
	// across languages; required for the cross-lingual fallback.
	Multilingual bool
}

// modelTable holds metadata for known models.
var modelTable = map[string]ModelInfo{
	"BAAI/bge-small-en-v1.5":         {NeedsPrefix: true},
	"BAAI/bge-base-en-v1.5":          {NeedsPrefix: true},
	"BAAI/bge-large-en-v1.5":         {NeedsPrefix: true},
	"BAAI/bge-small-zh-v1.5":         {NeedsPrefix: true, Multilingual: true},
	"BAAI/bge-large-zh-v1.5":         {NeedsPrefix: true, Multilingual: true},
	"BAAI/bge-m3":                    {NeedsPrefix: true, Multilingual: true},
	"intfloat/multilingual-e5-large": {NeedsPrefix: true, Multilingual: true},
}

// LookupModel returns metadata for a model identifier. Unknown models
// fall back to a conservative substring heuristic so newly released
// family members still behave sensibly.
func LookupModel(name string) ModelInfo {
	if info, ok := modelTable[name]; ok {
		return info
	}
	lower := strings.ToLower(name)
	return ModelInfo{
		NeedsPrefix: strings.Contains(lower, "bge") || strings.Contains(lower, "e5"),
		Multilingual: strings.Contains(lower, "multilingual") ||
			strings.Contains(lower, "e5") ||
			strings.Contains(lower, "bge-m3") ||
			strings.Contains(lower, "zh") ||
			strings.Contains(lower, "chinese"),
	}
}
