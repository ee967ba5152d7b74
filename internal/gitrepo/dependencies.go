package gitrepo

import (
	"context"

	"github.com/temirov/lockstep/internal/execshell"
)

// CommandExecutor abstracts git command execution for the repository manager.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}
