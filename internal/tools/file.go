package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/toolgate-ai/toolgate/internal/protocol"
	"github.com/toolgate-ai/toolgate/internal/registry"
)

// FileTool performs read/write/list/delete inside the configured
// directory allowlist, with a size cap on reads.
type FileTool struct {
	allowedDirs []string
	maxFileSize int64
}

func NewFileTool(allowedDirs []string, maxFileSize int64) *FileTool {
	return &FileTool{allowedDirs: allowedDirs, maxFileSize: maxFileSize}
}

func (t *FileTool) Descriptor() registry.ToolDescriptor {
	return registry.ToolDescriptor{
		Name:        "file_operations",
		Description: "Safe file system operations with access controls",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"operation": map[string]any{
					"type":        "string",
					"enum":        []any{"read", "write", "list", "delete"},
					"description": "Operation: read, write, list, delete",
				},
				"path":    map[string]any{"type": "string", "description": "File or directory path"},
				"content": map[string]any{"type": "string", "description": "Content for write operations"},
			},
			"required": []any{"operation", "path"},
		},
		Handler: t.handle,
	}
}

func (t *FileTool) handle(_ context.Context, args map[string]any) (*protocol.ToolCallResult, error) {
	op, _ := args["operation"].(string)
	rawPath, _ := args["path"].(string)

	path, err := t.resolve(rawPath)
	if err != nil {
		return nil, err
	}

	switch op {
	case "read":
		return t.read(path)
	case "write":
		content, _ := args["content"].(string)
		return t.write(path, content)
	case "list":
		return t.list(path)
	case "delete":
		return t.delete(path)
	default:
		return nil, protocol.Errorf(protocol.KindDomain, "unsupported operation: %s", op)
	}
}

// resolve makes the path absolute and enforces the directory allowlist.
// The check is a string prefix against each allowed directory, matching
// the documented policy.
func (t *FileTool) resolve(rawPath string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(rawPath))
	if err != nil {
		return "", protocol.Errorf(protocol.KindDomain, "invalid path: %s", rawPath)
	}
	for _, dir := range t.allowedDirs {
		if strings.HasPrefix(abs, dir) {
			return abs, nil
		}
	}
	return "", protocol.Errorf(protocol.KindAccessDenied, "access denied: path not in allowed directories")
}

func (t *FileTool) read(path string) (*protocol.ToolCallResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, protocol.Errorf(protocol.KindDomain, "file does not exist")
		}
		return nil, mapFSError(err)
	}
	if info.Size() > t.maxFileSize {
		return nil, protocol.Errorf(protocol.KindAccessDenied, "file too large: %d bytes exceeds limit of %d", info.Size(), t.maxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, mapFSError(err)
	}
	return protocol.Text("File content:\n%s", content), nil
}

func (t *FileTool) write(path, content string) (*protocol.ToolCallResult, error) {
	if content == "" {
		return nil, protocol.Errorf(protocol.KindDomain, "content required for write operation")
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, mapFSError(err)
	}
	return protocol.Text("Successfully wrote %d characters to %s", len(content), path), nil
}

func (t *FileTool) list(path string) (*protocol.ToolCallResult, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, protocol.Errorf(protocol.KindDomain, "path is not a directory")
		}
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) && pathErr.Err.Error() == "not a directory" {
			return nil, protocol.Errorf(protocol.KindDomain, "path is not a directory")
		}
		return nil, mapFSError(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return protocol.Text("Directory contents:\n%s", strings.Join(names, "\n")), nil
}

func (t *FileTool) delete(path string) (*protocol.ToolCallResult, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, protocol.Errorf(protocol.KindDomain, "file does not exist")
		}
		return nil, mapFSError(err)
	}
	if err := os.Remove(path); err != nil {
		return nil, mapFSError(err)
	}
	return protocol.Text("Successfully deleted %s", path), nil
}

func mapFSError(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return protocol.Errorf(protocol.KindAccessDenied, "permission denied")
	}
	return fmt.Errorf("file operation failed: %w", err)
}
