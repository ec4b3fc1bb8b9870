package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// ErrNotFound matches every NotFoundError via errors.Is.
//
//nolint:gochecknoglobals // Sentinel error
var ErrNotFound = errors.New("not found")

// NotFoundError reports a missing file or directory.
type NotFoundError struct {
	Path string
	Kind string
}

func (e *NotFoundError) Error() (msg string) {
	kind := e.Kind
	if kind == "" {
		kind = "file"
	}
	msg = kind + " not found: " + e.Path
	return msg
}

// Is lets errors.Is(err, ErrNotFound) match any NotFoundError.
func (e *NotFoundError) Is(target error) (ok bool) {
	ok = target == ErrNotFound
	return ok
}

// SaveJSON writes data as indented UTF-8 JSON, creating parent directories as needed.
// HTML characters and non-ASCII text are written as-is.
func SaveJSON(path string, data interface{}) (err error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	err = encoder.Encode(data)
	if err != nil {
		err = errors.Wrapf(err, "failed to encode JSON for %s", path)
		return err
	}

	// Encode appends a newline; keep the file identical to MarshalIndent output.
	content := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	err = writeFile(path, content)
	return err
}

// ReadJSON decodes the JSON file at path into v.
func ReadJSON(path string, v interface{}) (err error) {
	var data []byte
	data, err = readFile(path)
	if err != nil {
		return err
	}

	err = json.Unmarshal(data, v)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse JSON file: %s", path)
		return err
	}

	return err
}

// ReadRaw returns the bytes of the file at path.
func ReadRaw(path string) (data []byte, err error) {
	data, err = readFile(path)
	return data, err
}

// LoadFileContent returns the UTF-8 text content of the file at path.
func LoadFileContent(path string) (content string, err error) {
	var data []byte
	data, err = readFile(path)
	if err != nil {
		return content, err
	}

	content = string(data)
	return content, err
}

// SaveText writes raw text, creating parent directories as needed.
func SaveText(path, content string) (err error) {
	err = writeFile(path, []byte(content))
	return err
}

// Exists reports whether path exists.
func Exists(path string) (ok bool) {
	_, err := os.Stat(path)
	ok = err == nil
	return ok
}

func readFile(path string) (data []byte, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = &NotFoundError{Path: path}
			return data, err
		}
		err = errors.Wrapf(err, "failed to read file: %s", path)
		return data, err
	}
	return data, err
}

func writeFile(path string, content []byte) (err error) {
	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create directory: %s", dir)
		return err
	}

	err = os.WriteFile(path, content, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write file: %s", path)
		return err
	}

	return err
}
