package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Data file names inside a catalog directory.
const (
	UsersFile          = "users.json"
	DepartmentsFile    = "departments.json"
	ProductsFile       = "products.json"
	SuppliersFile      = "suppliers.json"
	ProductDetailsFile = "product_details.json"
)

// MaxFileSize bounds the size of a single catalog file.
const MaxFileSize = 16 << 20

// singleFileNames are checked, in order, before falling back to the
// per-entity JSON files.
var singleFileNames = []string{"catalog.yaml", "catalog.yml"}

// Load reads and validates a catalog.
//
// path may be a single YAML file, or a directory containing either
// catalog.yaml or the five JSON data files (users.json, departments.json,
// products.json, suppliers.json, product_details.json).
func Load(path string) (*Store, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	store, err := New(doc)
	if err != nil {
		return nil, err
	}
	store.source = path
	return store, nil
}

// LoadDocument decodes a catalog without validating it.
func LoadDocument(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{FilePath: path, Message: "path not found", Cause: err}
		}
		return nil, &LoadError{FilePath: path, Message: "failed to access path", Cause: err}
	}

	if !info.IsDir() {
		return loadSingleFile(path)
	}

	for _, name := range singleFileNames {
		candidate := filepath.Join(path, name)
		if _, err := os.Stat(candidate); err == nil {
			return loadSingleFile(candidate)
		}
	}

	doc := &Document{}
	files := []struct {
		name string
		into any
	}{
		{UsersFile, &doc.Users},
		{DepartmentsFile, &doc.Departments},
		{ProductsFile, &doc.Products},
		{SuppliersFile, &doc.Suppliers},
		{ProductDetailsFile, &doc.Offers},
	}
	for _, f := range files {
		data, err := readFile(filepath.Join(path, f.name))
		if err != nil {
			return nil, err
		}
		if err := decodeJSON(data, f.into); err != nil {
			return nil, &LoadError{FilePath: filepath.Join(path, f.name), Message: "JSON decoding failed", Cause: err}
		}
	}
	return doc, nil
}

func loadSingleFile(path string) (*Document, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, &LoadError{FilePath: path, Message: "YAML parsing failed", Cause: err}
		}
	case ".json":
		if err := decodeJSON(data, doc); err != nil {
			return nil, &LoadError{FilePath: path, Message: "JSON decoding failed", Cause: err}
		}
	default:
		return nil, &LoadError{FilePath: path, Message: "unsupported catalog file extension"}
	}
	return doc, nil
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{FilePath: path, Message: "file not found", Cause: err}
		}
		return nil, &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}
	if info.Size() > MaxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}
	if !utf8.Valid(data) {
		return nil, &LoadError{FilePath: path, Message: "file contains invalid UTF-8 encoding"}
	}
	return data, nil
}

// decodeJSON decodes data into v. Unknown fields are an error.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
