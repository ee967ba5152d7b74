package gitrepo

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	gitconfigformat "github.com/go-git/go-git/v5/plumbing/format/config"
)

const (
	gitmodulesFileNameConstant        = ".gitmodules"
	submoduleSectionNameConstant      = "submodule"
	submodulePathOptionNameConstant   = "path"
	submoduleURLOptionNameConstant    = "url"
	submoduleBranchOptionNameConstant = "branch"
	operationSubmoduleListingConstant = "submodule listing"
)

// ListSubmodules returns the submodule declarations from the repository's .gitmodules file.
// A repository without a .gitmodules file has no submodules.
func (manager *Manager) ListSubmodules(executionContext context.Context) ([]SubmoduleDeclaration, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return nil, OperationError{RepositoryPath: manager.repositoryPath, Operation: operationSubmoduleListingConstant, Cause: contextError}
	}

	gitmodulesPath := filepath.Join(manager.repositoryPath, gitmodulesFileNameConstant)
	gitmodulesContent, readError := os.ReadFile(gitmodulesPath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return []SubmoduleDeclaration{}, nil
		}
		return nil, OperationError{RepositoryPath: manager.repositoryPath, Operation: operationSubmoduleListingConstant, Cause: readError}
	}

	parsedConfiguration := gitconfigformat.New()
	decodeError := gitconfigformat.NewDecoder(bytes.NewReader(gitmodulesContent)).Decode(parsedConfiguration)
	if decodeError != nil {
		return nil, OperationError{RepositoryPath: manager.repositoryPath, Operation: operationSubmoduleListingConstant, Cause: decodeError}
	}

	declarations := []SubmoduleDeclaration{}
	for _, submoduleSubsection := range parsedConfiguration.Section(submoduleSectionNameConstant).Subsections {
		declaration := SubmoduleDeclaration{
			Name:   submoduleSubsection.Name,
			Path:   submoduleSubsection.Option(submodulePathOptionNameConstant),
			URL:    submoduleSubsection.Option(submoduleURLOptionNameConstant),
			Branch: submoduleSubsection.Option(submoduleBranchOptionNameConstant),
		}
		if len(strings.TrimSpace(declaration.Path)) == 0 {
			continue
		}
		declarations = append(declarations, declaration)
	}
	return declarations, nil
}

// IsSubmodulePath reports whether the candidate path is declared as a submodule.
func (manager *Manager) IsSubmodulePath(executionContext context.Context, candidatePath string) (bool, error) {
	declarations, listingError := manager.ListSubmodules(executionContext)
	if listingError != nil {
		return false, listingError
	}

	normalizedCandidate := filepath.ToSlash(strings.TrimSpace(candidatePath))
	for _, declaration := range declarations {
		if filepath.ToSlash(declaration.Path) == normalizedCandidate {
			return true, nil
		}
	}
	return false, nil
}
