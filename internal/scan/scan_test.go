package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVaultFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestVault(t *testing.T) {
	root := t.TempDir()

	writeVaultFile(t, root, "inbox.md",
		"# Inbox\n```tasks\nnot done\n```\n```tasks\n%% notekit:ignore %%\ndone\n```\n")
	writeVaultFile(t, root, "notes/query.md",
		"```dataview\nLIST\n```\n")
	writeVaultFile(t, root, "drawings/plan.excalidraw.md",
		"---\nexcalidraw-plugin: parsed\n---\n```json\n{}\n```\n")
	writeVaultFile(t, root, "plain.md", "no fences\n")
	// Non-markdown and hidden content must be ignored.
	writeVaultFile(t, root, "attachment.pdf", "binary-ish")
	writeVaultFile(t, root, ".obsidian/workspace.md", "```tasks\nnot done\n```\n")

	summary, err := Vault(context.Background(), root, 2)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Files)
	assert.Equal(t, 1, summary.Excalidraw)
	assert.Equal(t, 1, summary.TaskQueries)
	assert.Equal(t, 1, summary.SkipBlocks)
	assert.Equal(t, 1, summary.OtherBlocks)

	// Reports are in path order regardless of read completion order.
	require.Len(t, summary.Reports, 4)
	assert.Equal(t, filepath.Join(root, "drawings/plan.excalidraw.md"), summary.Reports[0].Path)
	assert.Equal(t, filepath.Join(root, "inbox.md"), summary.Reports[1].Path)
	assert.Equal(t, filepath.Join(root, "notes/query.md"), summary.Reports[2].Path)
	assert.Equal(t, filepath.Join(root, "plain.md"), summary.Reports[3].Path)
}

func TestVault_SingleFile(t *testing.T) {
	root := t.TempDir()
	writeVaultFile(t, root, "inbox.md", "```tasks\nnot done\n```\n")

	summary, err := Vault(context.Background(), filepath.Join(root, "inbox.md"), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Files)
	assert.Equal(t, 1, summary.TaskQueries)
}

func TestVault_EmptyVault(t *testing.T) {
	summary, err := Vault(context.Background(), t.TempDir(), 5)
	require.NoError(t, err)
	assert.Zero(t, summary.Files)
	assert.Empty(t, summary.Reports)
}

func TestVault_MissingRoot(t *testing.T) {
	_, err := Vault(context.Background(), filepath.Join(t.TempDir(), "absent"), 5)
	require.Error(t, err)
}

func TestVault_BadFrontmatter(t *testing.T) {
	root := t.TempDir()
	writeVaultFile(t, root, "broken.md", "---\n\t: nope\n---\n")

	_, err := Vault(context.Background(), root, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.md")
}
