package configs

import (
	"fmt"
	"os"
	"path/filepath"

	kerrors "github.com/envault/envault/internal/errors"
)

// DefaultBaseURL is used when the user config does not name a service.
const DefaultBaseURL = "https://api.envault.dev/v1"

// UserConfig is the per-user configuration at
// <config dir>/envault/config.toml. It holds account identity only; no
// key material or tokens ever land here.
type UserConfig struct {
	Account Account `toml:"account"`
	Remote  Remote  `toml:"remote"`
}

type Account struct {
	Email               string `toml:"email"`
	AccountID           string `toml:"account_id"`
	PersonalWorkspaceID string `toml:"personal_workspace_id"`
}

type Remote struct {
	BaseURL string `toml:"base_url"`
}

// ProjectConfig is the project binding at <project root>/.envault/project.toml.
type ProjectConfig struct {
	Project Project `toml:"project"`
}

type Project struct {
	ID          string `toml:"project_id"`
	Name        string `toml:"name"`
	WorkspaceID string `toml:"workspace_id"`
}

func userConfigPath() string {
	return filepath.Join(UserEnvaultSettings.UserConfigsPath, "config.toml")
}

func projectConfigPath() string {
	return filepath.Join(ProjectEnvaultSettings.ProjectPath, ".envault", "project.toml")
}

// LoadUserConfig loads the user configuration, returning an empty config
// when none exists yet.
func LoadUserConfig() (*UserConfig, error) {
	configPath := userConfigPath()

	config := &UserConfig{}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	if err := loadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	return config, nil
}

// SaveUserConfig saves the user configuration to the config file.
func SaveUserConfig(config *UserConfig) error {
	if err := saveTOML(userConfigPath(), config); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}
	return nil
}

// BaseURL returns the configured service URL, falling back to the default.
func (c *UserConfig) BaseURL() string {
	if c.Remote.BaseURL != "" {
		return c.Remote.BaseURL
	}
	return DefaultBaseURL
}

// LoadProjectConfig loads the binding of the current project.
//
// Returns ErrProjectNotBound if the project has no binding file.
func LoadProjectConfig() (*ProjectConfig, error) {
	configPath := projectConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrProjectNotBound, configPath)
	}

	config := &ProjectConfig{}
	if err := loadTOML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	if config.Project.ID == "" || config.Project.WorkspaceID == "" {
		return nil, fmt.Errorf("%w: binding file is incomplete", kerrors.ErrProjectNotBound)
	}

	return config, nil
}

// SaveProjectConfig writes the project binding.
//
// Returns ErrProjectAlreadyBound if a binding for a different project
// already exists; rebinding to a new workspace for the same project is
// allowed, which is what migration does.
func SaveProjectConfig(config *ProjectConfig) error {
	existing, err := LoadProjectConfig()
	if err == nil && existing.Project.ID != config.Project.ID {
		return fmt.Errorf("%w: already bound to project %s", kerrors.ErrProjectAlreadyBound, existing.Project.ID)
	}

	if err := saveTOML(projectConfigPath(), config); err != nil {
		return fmt.Errorf("failed to save project config: %w", err)
	}
	return nil
}
