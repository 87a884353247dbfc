package configs

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	kerrors "github.com/envault/envault/internal/errors"
)

type UserSettings struct {
	UserConfigsPath string
}

type ProjectSettings struct {
	ProjectName string
	ProjectPath string
}

var (
	UserEnvaultSettings    *UserSettings
	ProjectEnvaultSettings *ProjectSettings
)

func init() {
	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatalf("error getting config directory: %s", err)
	}

	// This is independent of what repo you are in, so it is ok to init here
	UserEnvaultSettings = &UserSettings{
		UserConfigsPath: filepath.Join(configDir, "envault"),
	}
	ProjectEnvaultSettings = &ProjectSettings{
		ProjectName: "",
		ProjectPath: "",
	}
}

// InitProjectSettings locates the enclosing project by walking up from the
// working directory to the nearest .envault marker directory.
//
// Returns ErrProjectNotBound if no marker directory is found.
func InitProjectSettings() error {
	projectPath, err := FindProjectRoot()
	if err != nil {
		return err
	}

	ProjectEnvaultSettings = &ProjectSettings{
		ProjectName: filepath.Base(projectPath),
		ProjectPath: projectPath,
	}

	return nil
}

// FindProjectRoot walks up from the current directory looking for a
// .envault directory.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("error getting working directory: %w", err)
	}

	for {
		marker := filepath.Join(dir, ".envault")
		if info, err := os.Stat(marker); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no .envault directory found", kerrors.ErrProjectNotBound)
		}
		dir = parent
	}
}
