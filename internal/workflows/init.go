package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/envault/envault/internal/audit"
	"github.com/envault/envault/internal/configs"
)

// InitProjectOptions configures project initialization.
type InitProjectOptions struct {
	// Name is the project name; defaults to the directory name.
	Name string

	// Path is the directory to bind; defaults to the working directory.
	Path string
}

// InitProjectResult contains the outcome of initializing a project.
type InitProjectResult struct {
	ProjectID   string
	ProjectName string

	// WorkspaceID is the personal workspace the project starts in. Sharing
	// later migrates it to a shared workspace.
	WorkspaceID string

	// Path is the bound project root.
	Path string
}

// InitProject creates a project in the caller's personal workspace and
// binds the directory to it by writing .envault/project.toml.
//
// Returns ErrNotLoggedIn or ErrAuthenticationRequired if there is no
// usable session.
// Returns ErrProjectAlreadyBound if the directory is already bound to a
// different project.
func (e *Engine) InitProject(ctx context.Context, opts InitProjectOptions) (*InitProjectResult, error) {
	auth, err := e.Guard.Require(ctx)
	if err != nil {
		return nil, err
	}

	path := opts.Path
	if path == "" {
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
	}
	name := opts.Name
	if name == "" {
		name = filepath.Base(path)
	}

	userConfig, err := configs.LoadUserConfig()
	if err != nil {
		return nil, err
	}
	workspaceID := userConfig.Account.PersonalWorkspaceID
	if workspaceID == "" {
		return nil, fmt.Errorf("no personal workspace recorded for %s; log in again", auth.Email)
	}

	project, err := e.API.CreateProject(ctx, name, workspaceID)
	if err != nil {
		return nil, err
	}

	configs.ProjectEnvaultSettings = &configs.ProjectSettings{
		ProjectName: name,
		ProjectPath: path,
	}
	if err := os.MkdirAll(filepath.Join(path, ".envault"), 0700); err != nil {
		return nil, fmt.Errorf("creating .envault directory: %w", err)
	}
	if err := configs.SaveProjectConfig(&configs.ProjectConfig{
		Project: configs.Project{
			ID:          project.ID,
			Name:        name,
			WorkspaceID: project.WorkspaceID,
		},
	}); err != nil {
		return nil, err
	}

	entry := audit.ForUser("init")
	entry.ProjectID = project.ID
	entry.ProjectName = name
	entry.WorkspaceID = project.WorkspaceID
	audit.Log(entry)

	return &InitProjectResult{
		ProjectID:   project.ID,
		ProjectName: name,
		WorkspaceID: project.WorkspaceID,
		Path:        path,
	}, nil
}

// boundProject resolves the enclosing project binding, initializing the
// project settings first.
func boundProject() (*configs.Project, error) {
	if configs.ProjectEnvaultSettings.ProjectPath == "" {
		if err := configs.InitProjectSettings(); err != nil {
			return nil, err
		}
	}
	config, err := configs.LoadProjectConfig()
	if err != nil {
		return nil, err
	}
	return &config.Project, nil
}
