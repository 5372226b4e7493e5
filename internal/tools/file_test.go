package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/toolgate-ai/toolgate/internal/protocol"
)

func newFileFixture(t *testing.T, maxSize int64) (*FileTool, string) {
	t.Helper()
	dir := t.TempDir()
	return NewFileTool([]string{dir}, maxSize), dir
}

func callFile(t *testing.T, ft *FileTool, args map[string]any) (*protocol.ToolCallResult, error) {
	t.Helper()
	return ft.Descriptor().Handler(context.Background(), args)
}

func TestFileTool_WriteReadRoundTrip(t *testing.T) {
	ft, dir := newFileFixture(t, 1024)
	path := filepath.Join(dir, "note.txt")

	result, err := callFile(t, ft, map[string]any{
		"operation": "write", "path": path, "content": "hello world",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Content[0].Text, "Successfully wrote 11 characters") {
		t.Fatalf("unexpected write result: %s", result.Content[0].Text)
	}

	result, err = callFile(t, ft, map[string]any{"operation": "read", "path": path})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Content[0].Text, "hello world") {
		t.Fatalf("read did not return written content: %s", result.Content[0].Text)
	}
}

func TestFileTool_PathOutsideAllowlist(t *testing.T) {
	ft, _ := newFileFixture(t, 1024)

	for _, op := range []string{"read", "write", "list", "delete"} {
		args := map[string]any{"operation": op, "path": "/etc/passwd"}
		if op == "write" {
			args["content"] = "x"
		}
		_, err := callFile(t, ft, args)
		if !protocol.IsKind(err, protocol.KindAccessDenied) {
			t.Fatalf("%s outside allowlist: expected access_denied, got %v", op, err)
		}
	}
}

func TestFileTool_TraversalResolvedBeforeCheck(t *testing.T) {
	ft, dir := newFileFixture(t, 1024)

	// ../../ segments are cleaned before the allowlist check.
	sneaky := filepath.Join(dir, "sub", "..", "..", "..", "etc", "passwd")
	_, err := callFile(t, ft, map[string]any{"operation": "read", "path": sneaky})
	if !protocol.IsKind(err, protocol.KindAccessDenied) {
		t.Fatalf("expected access_denied for traversal, got %v", err)
	}
}

func TestFileTool_ReadMissingFile(t *testing.T) {
	ft, dir := newFileFixture(t, 1024)

	_, err := callFile(t, ft, map[string]any{
		"operation": "read", "path": filepath.Join(dir, "absent.txt"),
	})
	if !protocol.IsKind(err, protocol.KindDomain) {
		t.Fatalf("expected domain error for missing file, got %v", err)
	}
}

func TestFileTool_ReadOverSizeLimit(t *testing.T) {
	ft, dir := newFileFixture(t, 8)
	path := filepath.Join(dir, "big.txt")
	if err := os.WriteFile(path, []byte("well over eight bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := callFile(t, ft, map[string]any{"operation": "read", "path": path})
	if !protocol.IsKind(err, protocol.KindAccessDenied) {
		t.Fatalf("expected access_denied for oversized file, got %v", err)
	}
	if !strings.Contains(err.Error(), "file too large") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestFileTool_WriteEmptyContent(t *testing.T) {
	ft, dir := newFileFixture(t, 1024)

	_, err := callFile(t, ft, map[string]any{
		"operation": "write", "path": filepath.Join(dir, "empty.txt"),
	})
	if !protocol.IsKind(err, protocol.KindDomain) {
		t.Fatalf("expected domain error for empty content, got %v", err)
	}
}

func TestFileTool_ListAndDelete(t *testing.T) {
	ft, dir := newFileFixture(t, 1024)
	for _, name := range []string{"a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	result, err := callFile(t, ft, map[string]any{"operation": "list", "path": dir})
	if err != nil {
		t.Fatal(err)
	}
	text := result.Content[0].Text
	if !strings.Contains(text, "a.txt") || !strings.Contains(text, "b.txt") {
		t.Fatalf("listing missing entries: %s", text)
	}

	target := filepath.Join(dir, "a.txt")
	if _, err := callFile(t, ft, map[string]any{"operation": "delete", "path": target}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatal("file still exists after delete")
	}

	// Deleting again reports a missing file.
	_, err = callFile(t, ft, map[string]any{"operation": "delete", "path": target})
	if !protocol.IsKind(err, protocol.KindDomain) {
		t.Fatalf("expected domain error on double delete, got %v", err)
	}
}

func TestFileTool_ListOnRegularFile(t *testing.T) {
	ft, dir := newFileFixture(t, 1024)
	path := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := callFile(t, ft, map[string]any{"operation": "list", "path": path})
	if !protocol.IsKind(err, protocol.KindDomain) {
		t.Fatalf("expected domain error for list on file, got %v", err)
	}
}
