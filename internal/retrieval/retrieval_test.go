// internal/retrieval/retrieval_test.go
package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-autopilot/internal/common/config"
	"ticket-autopilot/internal/common/logger"
)

func TestChunkText_ShortTextSingleChunk(t *testing.T) {
	chunks := ChunkText("only a few words here", 500, 100)

	require.Len(t, chunks, 1)
	assert.Equal(t, "only a few words here", chunks[0])
}

func TestChunkText_OverlapWindows(t *testing.T) {
	words := make([]string, 1200)
	for i := range words {
		words[i] = "w" + string(rune('a'+i%26))
	}
	text := strings.Join(words, " ")

	chunks := ChunkText(text, 500, 100)

	// Windows advance by size-overlap = 400 words: [0:500), [400:900), [800:1200).
	require.Len(t, chunks, 3)
	assert.Len(t, strings.Fields(chunks[0]), 500)
	assert.Len(t, strings.Fields(chunks[1]), 500)
	assert.Len(t, strings.Fields(chunks[2]), 400)

	// Tail of one chunk is the head of the next.
	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	assert.Equal(t, first[400:], second[:100])
}

func TestChunkText_EmptyText(t *testing.T) {
	assert.Empty(t, ChunkText("   ", 500, 100))
}

func TestCleanText(t *testing.T) {
	in := "line one\r\n\r\n\r\n\r\nline two\n\n\nline three\n"
	assert.Equal(t, "line one\n\nline two\n\nline three", CleanText(in))
}

func TestMemoryEngine_RetrieveOrdering(t *testing.T) {
	engine := NewMemoryEngine()
	ctx := context.Background()

	err := engine.Index(ctx, []Document{
		{ID: "1", Text: "how to reset your account password", Metadata: map[string]interface{}{"filename": "passwords.md"}},
		{ID: "2", Text: "billing cycles and invoice dates", Metadata: map[string]interface{}{"filename": "billing.md"}},
		{ID: "3", Text: "password reset requires email verification first", Metadata: map[string]interface{}{"filename": "passwords.md"}},
	})
	require.NoError(t, err)

	contexts, err := engine.Retrieve(ctx, "reset password", 3)
	require.NoError(t, err)
	require.Len(t, contexts, 2)

	// Both password docs match, invoices do not.
	for _, c := range contexts {
		assert.Equal(t, "passwords.md", c.Metadata["filename"])
		assert.Greater(t, c.Score, 0.0)
		assert.LessOrEqual(t, c.Score, 1.0)
	}
	assert.GreaterOrEqual(t, contexts[0].Score, contexts[1].Score)
}

func TestMemoryEngine_TopKLimit(t *testing.T) {
	engine := NewMemoryEngine()
	ctx := context.Background()

	docs := make([]Document, 10)
	for i := range docs {
		docs[i] = Document{ID: string(rune('a' + i)), Text: "shipping rates for international orders"}
	}
	require.NoError(t, engine.Index(ctx, docs))

	contexts, err := engine.Retrieve(ctx, "international shipping", 3)
	require.NoError(t, err)
	assert.Len(t, contexts, 3)
}

func TestMemoryEngine_NoMatches(t *testing.T) {
	engine := NewMemoryEngine()
	ctx := context.Background()

	require.NoError(t, engine.Index(ctx, []Document{{ID: "1", Text: "refund policy details"}}))

	contexts, err := engine.Retrieve(ctx, "zzzzz qqqqq", 3)
	require.NoError(t, err)
	assert.Empty(t, contexts)
}

func TestNew_BackendSelection(t *testing.T) {
	engine, err := New(config.RetrievalConfig{Backend: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryEngine{}, engine)

	_, err = New(config.RetrievalConfig{Backend: "elasticsearch"}, nil)
	assert.Error(t, err)

	_, err = New(config.RetrievalConfig{Backend: "chroma"}, nil)
	assert.Error(t, err)
}

func TestIngestFolder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "faq.txt"), []byte("password resets are self service"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("invoices go out monthly"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte{0x89, 0x50}, 0o644))

	engine := NewMemoryEngine()
	count, err := IngestFolder(context.Background(), engine, dir, logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	contexts, err := engine.Retrieve(context.Background(), "password reset", 5)
	require.NoError(t, err)
	require.Len(t, contexts, 1)
	assert.Equal(t, "faq.txt", contexts[0].Metadata["filename"])
}

func TestIngestFolder_MissingFolder(t *testing.T) {
	_, err := IngestFolder(context.Background(), NewMemoryEngine(), "/nonexistent/folder", logger.NewNoOpLogger())
	assert.Error(t, err)
}
