package gitrepo_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/lockstep/internal/gitrepo"
)

const (
	testGitmodulesContentConstant = "[submodule \"libs/x\"]\n" +
		"\tpath = libs/x\n" +
		"\turl = ../x.git\n" +
		"\tbranch = main\n" +
		"[submodule \"tools\"]\n" +
		"\tpath = tools\n" +
		"\turl = https://example.com/tools.git\n"
	testDeclaredSubmoduleCaseNameConstant   = "declared_path_is_submodule"
	testUndeclaredSubmoduleCaseNameConstant = "undeclared_path_is_not_submodule"
)

func newSubmoduleTestManager(testInstance *testing.T, gitmodulesContent string) *gitrepo.Manager {
	repositoryDirectory := testInstance.TempDir()
	if len(gitmodulesContent) > 0 {
		writeError := os.WriteFile(filepath.Join(repositoryDirectory, ".gitmodules"), []byte(gitmodulesContent), 0o600)
		require.NoError(testInstance, writeError)
	}

	manager, creationError := gitrepo.NewManager(repositoryDirectory, newScriptedExecutor(), zap.NewNop())
	require.NoError(testInstance, creationError)
	return manager
}

func TestManagerListSubmodules(testInstance *testing.T) {
	manager := newSubmoduleTestManager(testInstance, testGitmodulesContentConstant)

	declarations, listingError := manager.ListSubmodules(context.Background())
	require.NoError(testInstance, listingError)
	require.Len(testInstance, declarations, 2)

	require.Equal(testInstance, "libs/x", declarations[0].Name)
	require.Equal(testInstance, "libs/x", declarations[0].Path)
	require.Equal(testInstance, "../x.git", declarations[0].URL)
	require.Equal(testInstance, "main", declarations[0].Branch)

	require.Equal(testInstance, "tools", declarations[1].Path)
	require.Empty(testInstance, declarations[1].Branch)
}

func TestManagerListSubmodulesWithoutGitmodulesFile(testInstance *testing.T) {
	manager := newSubmoduleTestManager(testInstance, "")

	declarations, listingError := manager.ListSubmodules(context.Background())
	require.NoError(testInstance, listingError)
	require.Empty(testInstance, declarations)
}

func TestManagerIsSubmodulePath(testInstance *testing.T) {
	testCases := []struct {
		name          string
		candidatePath string
		expected      bool
	}{
		{
			name:          testDeclaredSubmoduleCaseNameConstant,
			candidatePath: "libs/x",
			expected:      true,
		},
		{
			name:          testUndeclaredSubmoduleCaseNameConstant,
			candidatePath: "src/app.c",
			expected:      false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			manager := newSubmoduleTestManager(testInstance, testGitmodulesContentConstant)

			isSubmodule, inspectionError := manager.IsSubmodulePath(context.Background(), testCase.candidatePath)
			require.NoError(testInstance, inspectionError)
			require.Equal(testInstance, testCase.expected, isSubmodule)
		})
	}
}
