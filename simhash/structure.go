package simhash

import (
	"strings"

	"golang.org/x/net/html"
)

const shingleSize = 3

// StructureFingerprint hashes a region's element skeleton. Tokens are tag
// names plus tag.class markers, in document order, shingled so local
// reordering registers as change. Text content and other attributes are
// ignored: cell values change every measurement, the row and cell classes
// the table walk keys on should not.
func StructureFingerprint(regionHTML string) uint64 {
	tokens := structureTokens(regionHTML)
	if len(tokens) == 0 {
		return 0
	}

	shingles := makeShingles(tokens, shingleSize)
	if len(shingles) == 0 {
		// Too few elements to shingle; hash the bare token stream.
		return FingerprintTokens(tokens)
	}
	return FingerprintTokens(shingles)
}

// structureTokens walks the markup with the tokenizer and collects, per
// open tag, the tag name and one name.class token per class.
func structureTokens(regionHTML string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(regionHTML))
	var tokens []string

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return tokens
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			tag := string(name)
			tokens = append(tokens, tag)
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = tokenizer.TagAttr()
				if string(key) != "class" {
					continue
				}
				for _, class := range strings.Fields(string(val)) {
					tokens = append(tokens, tag+"."+class)
				}
			}
		}
	}
}

// makeShingles creates n-gram shingles from a slice of tokens.
func makeShingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}
	shingles := make([]string, 0, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		shingles = append(shingles, strings.Join(tokens[i:i+n], "_"))
	}
	return shingles
}
