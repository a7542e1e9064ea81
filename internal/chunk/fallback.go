package chunk

import "strings"

// blockChunks cuts lines into BlockSize-line blocks that overlap by Overlap
// lines. Blank blocks are skipped and the walk stops once a block reaches
// the last line.
func blockChunks(path string, lines []string) []Chunk {
	total := len(lines)
	step := BlockSize - Overlap

	var chunks []Chunk
	for start := 0; start < total; start += step {
		end := min(start+BlockSize, total)
		content := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(content) != "" {
			chunks = append(chunks, Chunk{
				FilePath:  path,
				Content:   content,
				StartLine: start + 1,
				EndLine:   end,
				Type:      TypeBlock,
			})
		}
		if end == total {
			break
		}
	}
	return chunks
}
