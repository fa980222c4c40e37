// internal/retrieval/ingest.go
package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"ticket-autopilot/internal/common/logger"
)

const (
	chunkSizeWords    = 500
	chunkOverlapWords = 100
)

var (
	crlfPattern       = regexp.MustCompile(`\r\n`)
	blankLinesPattern = regexp.MustCompile(`\n{2,}`)
)

// CleanText normalizes line endings and collapses runs of blank lines.
func CleanText(s string) string {
	s = crlfPattern.ReplaceAllString(s, "\n")
	s = blankLinesPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// ChunkText splits text into overlapping word windows so passages keep
// enough surrounding context to stand alone.
func ChunkText(text string, sizeWords, overlapWords int) []string {
	words := strings.Fields(text)
	var chunks []string

	i := 0
	n := len(words)
	for i < n {
		j := i + sizeWords
		if j > n {
			j = n
		}
		chunks = append(chunks, strings.Join(words[i:j], " "))

		next := j - overlapWords
		if next <= i {
			next = j
		}
		i = next
	}
	return chunks
}

// IngestFolder reads every plain-text file in a folder, chunks it, and
// indexes the chunks with filename metadata. Unreadable files are skipped
// with a warning; binary document extraction (PDF, DOCX) lives outside this
// service.
func IngestFolder(ctx context.Context, engine Engine, folder string, log logger.Logger) (int, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return 0, fmt.Errorf("read corpus folder: %w", err)
	}

	indexed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".txt" && ext != ".md" {
			continue
		}

		full := filepath.Join(folder, name)
		raw, err := os.ReadFile(full)
		if err != nil {
			log.Warn("skipping unreadable corpus file", map[string]interface{}{
				"file":  name,
				"error": err,
			})
			continue
		}

		chunks := ChunkText(CleanText(string(raw)), chunkSizeWords, chunkOverlapWords)
		docs := make([]Document, 0, len(chunks))
		for idx, chunk := range chunks {
			docs = append(docs, Document{
				ID:   fmt.Sprintf("%s-%d", name, idx),
				Text: chunk,
				Metadata: map[string]interface{}{
					"filename": name,
					"path":     full,
				},
			})
		}

		if err := engine.Index(ctx, docs); err != nil {
			return indexed, fmt.Errorf("index %s: %w", name, err)
		}
		indexed += len(docs)

		log.Info("corpus file indexed", map[string]interface{}{
			"file":   name,
			"chunks": len(chunks),
		})
	}

	return indexed, nil
}
