package workflows

import (
	"context"

	"github.com/envault/envault/internal/api"
)

// ListWorkspaces returns the caller's workspace memberships.
func (e *Engine) ListWorkspaces(ctx context.Context) ([]api.WorkspaceRecord, error) {
	if _, err := e.Guard.Require(ctx); err != nil {
		return nil, err
	}
	return e.API.ListWorkspaces(ctx)
}

// ListMembers returns the membership of the bound project's workspace.
//
// Returns ErrProjectNotBound if the directory has no project binding.
func (e *Engine) ListMembers(ctx context.Context) ([]api.MemberRecord, error) {
	if _, err := e.Guard.Require(ctx); err != nil {
		return nil, err
	}
	project, err := boundProject()
	if err != nil {
		return nil, err
	}
	return e.API.ListMembers(ctx, project.WorkspaceID)
}
