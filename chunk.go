package apilocale

import (
	"strings"
	"unicode"
)

var sentenceEnds = map[rune]bool{'.': true, '!': true, '?': true, '…': true}

// SplitChunks splits text into ordered pieces of at most size runes.
//
// Each window is cut after the last sentence terminator found in its back
// half, otherwise after the last comma or space, otherwise at size exactly.
// Pieces are trimmed and empty pieces dropped.
func SplitChunks(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	runes := []rune(strings.TrimSpace(text))
	var chunks []string

	for len(runes) > size {
		cut := chunkCut(runes, size)
		if piece := strings.TrimSpace(string(runes[:cut])); piece != "" {
			chunks = append(chunks, piece)
		}
		runes = runes[cut:]
	}

	if piece := strings.TrimSpace(string(runes)); piece != "" {
		chunks = append(chunks, piece)
	}
	return chunks
}

// chunkCut returns the exclusive end of the next chunk. len(runes) > size.
func chunkCut(runes []rune, size int) int {
	for i := size - 1; i >= size/2; i-- {
		if sentenceEnds[runes[i]] && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}

	for i := size - 1; i > 0; i-- {
		if runes[i] == ',' || unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}

	return size
}
