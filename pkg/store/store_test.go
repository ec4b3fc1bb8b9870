package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestJSONRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.json")

	testData := map[string]interface{}{
		"test":   "data",
		"number": float64(42),
		"list":   []interface{}{float64(1), float64(2), float64(3)},
		"nested": map[string]interface{}{"key": "value"},
	}

	err := SaveJSON(path, testData)
	if err != nil {
		t.Fatalf("Failed to save JSON: %v", err)
	}

	var loaded map[string]interface{}
	err = ReadJSON(path, &loaded)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}

	if !reflect.DeepEqual(loaded, testData) {
		t.Errorf("Expected %v, got %v", testData, loaded)
	}
}

func TestSaveJSONCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "subdir", "another", "test.json")

	err := SaveJSON(path, map[string]string{"test": "data"})
	if err != nil {
		t.Fatalf("Failed to save JSON: %v", err)
	}

	if !Exists(path) {
		t.Fatal("Expected file to exist")
	}

	var loaded map[string]string
	err = ReadJSON(path, &loaded)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}

	if loaded["test"] != "data" {
		t.Errorf("Expected 'data', got '%s'", loaded["test"])
	}
}

func TestSaveJSONFormatting(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "formatted.json")

	err := SaveJSON(path, map[string]string{"name": "Zoë <admin> & co"})
	if err != nil {
		t.Fatalf("Failed to save JSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	expected := "{\n  \"name\": \"Zoë <admin> & co\"\n}"
	if string(data) != expected {
		t.Errorf("Expected %q, got %q", expected, string(data))
	}
}

func TestReadJSONMissingFile(t *testing.T) {
	var v interface{}
	err := ReadJSON(filepath.Join(t.TempDir(), "nonexistent_file.json"), &v)
	if err == nil {
		t.Fatal("Expected error reading missing file, got nil")
	}

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if !strings.Contains(err.Error(), "file not found") {
		t.Errorf("Expected 'file not found' in error, got %v", err)
	}
}

func TestReadJSONInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.json")
	err := os.WriteFile(path, []byte("not valid json"), 0600)
	if err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	var v interface{}
	err = ReadJSON(path, &v)
	if err == nil {
		t.Fatal("Expected error parsing invalid JSON, got nil")
	}

	if errors.Is(err, ErrNotFound) {
		t.Error("Parse failure should not be reported as not found")
	}
}

func TestLoadFileContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	content := "This is test content\nWith multiple lines"

	err := SaveText(path, content)
	if err != nil {
		t.Fatalf("Failed to save text: %v", err)
	}

	loaded, err := LoadFileContent(path)
	if err != nil {
		t.Fatalf("Failed to load content: %v", err)
	}

	if loaded != content {
		t.Errorf("Expected %q, got %q", content, loaded)
	}

	_, err = LoadFileContent(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestNotFoundErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  NotFoundError
		want string
	}{
		{name: "file", err: NotFoundError{Path: "a.json"}, want: "file not found: a.json"},
		{name: "directory", err: NotFoundError{Path: "data/jobs", Kind: "jobs directory"}, want: "jobs directory not found: data/jobs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, tt.err.Error())
			}
		})
	}
}
