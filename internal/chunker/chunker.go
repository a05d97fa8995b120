// Package chunker splits extracted document text into bounded, overlapping
// segments suitable for embedding. Splitting is a pure function of its
// inputs: identical (text, size, overlap) always produce identical chunks.
package chunker

import "strings"

// sentenceLookback is how far (in runes) the splitter scans backward from a
// raw cut point looking for a sentence boundary before giving up and cutting
// at the raw offset.
const sentenceLookback = 100

// isSentenceBoundary reports whether r terminates a sentence.
func isSentenceBoundary(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n'
}

// Split divides text into chunks of at most chunkSize runes, each window
// shifted forward by chunkSize-overlap runes from the previous window's
// start. Before cutting at the raw offset it scans backward (up to
// sentenceLookback runes) for the nearest sentence-terminating character and
// cuts immediately after it, so sentences are not severed mid-way.
//
// Text no longer than chunkSize is returned as a single chunk, unmodified.
// Produced chunks are trimmed of surrounding whitespace; chunks that are
// empty after trimming are dropped. When overlap does not advance the start
// position (overlap >= chunkSize), progress is forced to the end of the
// current window so the loop always terminates.
func Split(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(runes) {
		end := start + chunkSize

		if end < len(runes) {
			// Prefer cutting just after a sentence boundary near the raw offset.
			lookbackLimit := end - sentenceLookback
			if lookbackLimit < start {
				lookbackLimit = start
			}
			for i := end - 1; i >= lookbackLimit; i-- {
				if isSentenceBoundary(runes[i]) {
					end = i + 1
					break
				}
			}
		} else {
			end = len(runes)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			// The final window already covers the tail; stepping back by the
			// overlap here would only re-emit text contained in it.
			break
		}

		next := end - overlap
		if next <= start {
			// Overlap would stall or move backward; jump to the window end.
			next = end
		}
		start = next
	}

	return chunks
}
