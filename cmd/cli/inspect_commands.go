package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/lockstep/internal/hierarchy"
	"github.com/temirov/lockstep/internal/rebase"
)

const (
	hierarchyCommandUseConstant      = "hierarchy"
	hierarchyCommandShortConstant    = "Show the discovered repository hierarchy"
	statusCommandUseConstant         = "status"
	statusCommandShortConstant       = "Show each repository's branch and working-tree state"
	validateCommandUseConstant       = "validate"
	validateCommandShortConstant     = "Check rebase preconditions across the hierarchy"
	hierarchyRowTemplateConstant     = "%s%s  (%s)\n"
	hierarchyIndentConstant          = "  "
	submoduleMarkerConstant          = " [submodule]"
	statusRowTemplateConstant        = "%s  branch=%s dirty=%d%s\n"
	statusRebaseMarkerConstant       = " rebase-in-progress"
	validationFailedTemplateConstant = "%d precondition issue(s) found"
)

func (application *Application) buildHierarchyCommand() *cobra.Command {
	var rootPath string

	hierarchyCommand := &cobra.Command{
		Use:   hierarchyCommandUseConstant,
		Short: hierarchyCommandShortConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			commandToolset, toolsetError := application.buildToolset()
			if toolsetError != nil {
				return toolsetError
			}

			rootNode, discoveryError := commandToolset.discoverer.Discover(command.Context(), application.resolveRootPath(rootPath))
			if discoveryError != nil {
				return discoveryError
			}

			for _, hierarchyEntry := range hierarchy.Entries(rootNode) {
				marker := ""
				if hierarchyEntry.IsSubmodule {
					marker = submoduleMarkerConstant
				}
				fmt.Fprintf(command.OutOrStdout(), hierarchyRowTemplateConstant,
					strings.Repeat(hierarchyIndentConstant, hierarchyEntry.Depth),
					hierarchyEntry.Name+marker,
					hierarchyEntry.Path,
				)
			}
			return nil
		},
	}

	hierarchyCommand.Flags().StringVar(&rootPath, rootFlagNameConstant, "", rootFlagUsageConstant)
	return hierarchyCommand
}

func (application *Application) buildStatusCommand() *cobra.Command {
	var rootPath string

	statusCommand := &cobra.Command{
		Use:   statusCommandUseConstant,
		Short: statusCommandShortConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			commandToolset, toolsetError := application.buildToolset()
			if toolsetError != nil {
				return toolsetError
			}

			repositoryStatuses, statusError := commandToolset.orchestrator.Status(command.Context(), application.resolveRootPath(rootPath))
			if statusError != nil {
				return statusError
			}

			for _, repositoryStatus := range repositoryStatuses {
				marker := ""
				if repositoryStatus.RebaseInProgress {
					marker = statusRebaseMarkerConstant
				}
				fmt.Fprintf(command.OutOrStdout(), statusRowTemplateConstant,
					strings.Repeat(hierarchyIndentConstant, repositoryStatus.Depth)+repositoryStatus.Name,
					repositoryStatus.CurrentBranch,
					len(repositoryStatus.DirtyPaths),
					marker,
				)
			}
			return nil
		},
	}

	statusCommand.Flags().StringVar(&rootPath, rootFlagNameConstant, "", rootFlagUsageConstant)
	return statusCommand
}

func (application *Application) buildValidateCommand() *cobra.Command {
	var rootPath string
	var sourceBranch string
	var targetBranch string

	validateCommand := &cobra.Command{
		Use:   validateCommandUseConstant,
		Short: validateCommandShortConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			if sourceBranch == "" {
				sourceBranch = application.configuration.Rebase.SourceBranch
			}
			if targetBranch == "" {
				targetBranch = application.configuration.Rebase.TargetBranch
			}
			if sourceBranch == "" || targetBranch == "" {
				return fmt.Errorf(missingBranchesErrorConstant)
			}

			commandToolset, toolsetError := application.buildToolset()
			if toolsetError != nil {
				return toolsetError
			}

			validationIssues, validationError := commandToolset.orchestrator.Validate(command.Context(), application.resolveRootPath(rootPath), rebase.BranchPair{
				Source: sourceBranch,
				Target: targetBranch,
			})
			if validationError != nil {
				return validationError
			}
			if len(validationIssues) > 0 {
				return fmt.Errorf(validationFailedTemplateConstant, len(validationIssues))
			}
			return nil
		},
	}

	validateCommand.Flags().StringVar(&rootPath, rootFlagNameConstant, "", rootFlagUsageConstant)
	validateCommand.Flags().StringVar(&sourceBranch, sourceFlagNameConstant, "", sourceFlagUsageConstant)
	validateCommand.Flags().StringVar(&targetBranch, targetFlagNameConstant, "", targetFlagUsageConstant)
	return validateCommand
}
