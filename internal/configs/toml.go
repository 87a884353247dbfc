package configs

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// saveTOML writes a struct to a TOML file, creating parent directories.
// Config files are owner-only since they carry account identifiers.
func saveTOML(filePath string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return err
	}

	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(data)
}

// loadTOML reads a TOML file into a struct.
func loadTOML(filePath string, data interface{}) error {
	_, err := toml.DecodeFile(filePath, data)
	return err
}
