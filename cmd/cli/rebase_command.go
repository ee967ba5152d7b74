package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/temirov/lockstep/internal/rebase"
)

const (
	rebaseCommandUseConstant             = "rebase"
	rebaseCommandShortConstant           = "Rebase the source branch onto the target branch across the hierarchy"
	rebaseCommandLongConstant            = "Plans and executes a lockstep rebase: submodules are rebased deepest first, gitlink pointer conflicts in parents are resolved from the children's rewritten commits, and every touched branch is backed up beforehand."
	sourceFlagNameConstant               = "source"
	sourceFlagUsageConstant              = "Branch being rebased."
	targetFlagNameConstant               = "target"
	targetFlagUsageConstant              = "Branch to rebase onto."
	rootFlagNameConstant                 = "root"
	rootFlagUsageConstant                = "Path to the root repository."
	autoFlagNameConstant                 = "auto"
	autoFlagUsageConstant                = "Auto-discover participating submodules by comparing gitlink pointers."
	includeFlagNameConstant              = "include"
	includeFlagUsageConstant             = "Repositories to include, by name, relative path, or absolute path."
	excludeFlagNameConstant              = "exclude"
	excludeFlagUsageConstant             = "Repositories to exclude, by name, relative path, or absolute path."
	branchOverrideFlagNameConstant       = "branches"
	branchOverrideFlagUsageConstant      = "Per-repository branch override, repeatable: repo=source:target."
	branchFileFlagNameConstant           = "branches-file"
	branchFileFlagUsageConstant          = "YAML file mapping repositories to branch overrides; --branches entries win."
	branchFileReadErrorTemplateConstant  = "failed to read branch override file %s: %w"
	branchFileParseErrorTemplateConstant = "failed to parse branch override file %s: %w"
	pushFlagNameConstant                 = "push"
	pushFlagUsageConstant                = "Offer to force-push rewritten branches after a completed rebase."
	missingBranchesErrorConstant         = "both --source and --target are required (flags or configuration)"
	invalidOverrideTemplateConstant      = "invalid branch override %q, expected repo=source:target"
	overrideAssignmentSeparatorConstant  = "="
	overrideBranchSeparatorConstant      = ":"
	operationCompletedMessageConstant    = "Lockstep rebase completed."
	operationNotCompletedMessageConstant = "Lockstep rebase not completed; completed repositories and backups are left in place."
	rebaseSummaryTemplateConstant        = "  %s: %s -> %s (%d commit(s) rewritten)\n"
)

func (application *Application) buildRebaseCommand() *cobra.Command {
	var sourceBranch string
	var targetBranch string
	var rootPath string
	var autoDiscover bool
	var includeTokens []string
	var excludeTokens []string
	var branchOverrideValues []string
	var branchOverrideFilePath string
	var offerPush bool

	rebaseCommand := &cobra.Command{
		Use:   rebaseCommandUseConstant,
		Short: rebaseCommandShortConstant,
		Long:  rebaseCommandLongConstant,
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
			if !command.Flags().Changed(pushFlagNameConstant) {
				offerPush = application.configuration.Rebase.Push
			}

			branchOverrides, overrideError := parseBranchOverrides(branchOverrideValues)
			if overrideError != nil {
				return overrideError
			}

			if branchOverrideFilePath != "" {
				fileOverrides, fileError := loadBranchOverridesFile(branchOverrideFilePath)
				if fileError != nil {
					return fileError
				}
				branchOverrides = mergeBranchOverrides(fileOverrides, branchOverrides)
			}

			commandToolset, toolsetError := application.buildToolset()
			if toolsetError != nil {
				return toolsetError
			}

			resolvedRootPath := application.resolveRootPath(rootPath)
			executionContext := command.Context()

			var operation *rebase.RebaseOperation
			var planError error
			if autoDiscover {
				operation, planError = commandToolset.orchestrator.PlanAuto(executionContext, rebase.AutoPlanRequest{
					RootPath:        resolvedRootPath,
					SourceBranch:    sourceBranch,
					TargetBranch:    targetBranch,
					BranchOverrides: branchOverrides,
				})
			} else {
				operation, planError = commandToolset.orchestrator.Plan(executionContext, rebase.PlanRequest{
					RootPath:        resolvedRootPath,
					SourceBranch:    sourceBranch,
					TargetBranch:    targetBranch,
					Include:         includeTokens,
					Exclude:         excludeTokens,
					BranchOverrides: branchOverrides,
				})
			}
			if planError != nil {
				return planError
			}

			operationCompleted, executionError := commandToolset.orchestrator.Execute(executionContext, operation)
			if executionError != nil {
				return executionError
			}
			if !operationCompleted {
				fmt.Fprintln(command.OutOrStdout(), operationNotCompletedMessageConstant)
				return nil
			}

			fmt.Fprintln(command.OutOrStdout(), operationCompletedMessageConstant)
			for _, repositoryState := range operation.States {
				fmt.Fprintf(command.OutOrStdout(), rebaseSummaryTemplateConstant,
					repositoryState.Node.Name,
					repositoryState.SourceBranch,
					repositoryState.TargetBranch,
					len(repositoryState.RebasedCommits),
				)
			}

			if offerPush {
				return commandToolset.orchestrator.PushRebasedBranches(executionContext, operation)
			}
			return nil
		},
	}

	rebaseCommand.Flags().StringVar(&sourceBranch, sourceFlagNameConstant, "", sourceFlagUsageConstant)
	rebaseCommand.Flags().StringVar(&targetBranch, targetFlagNameConstant, "", targetFlagUsageConstant)
	rebaseCommand.Flags().StringVar(&rootPath, rootFlagNameConstant, "", rootFlagUsageConstant)
	rebaseCommand.Flags().BoolVar(&autoDiscover, autoFlagNameConstant, false, autoFlagUsageConstant)
	rebaseCommand.Flags().StringSliceVar(&includeTokens, includeFlagNameConstant, nil, includeFlagUsageConstant)
	rebaseCommand.Flags().StringSliceVar(&excludeTokens, excludeFlagNameConstant, nil, excludeFlagUsageConstant)
	rebaseCommand.Flags().StringArrayVar(&branchOverrideValues, branchOverrideFlagNameConstant, nil, branchOverrideFlagUsageConstant)
	rebaseCommand.Flags().StringVar(&branchOverrideFilePath, branchFileFlagNameConstant, "", branchFileFlagUsageConstant)
	rebaseCommand.Flags().BoolVar(&offerPush, pushFlagNameConstant, false, pushFlagUsageConstant)

	return rebaseCommand
}

// parseBranchOverrides turns repeated repo=source:target values into the
// override map planning consumes. Either branch may be left empty to keep the
// operation-wide default, e.g. libs/x=feature/renamed: only overrides source.
func parseBranchOverrides(overrideValues []string) (map[string]rebase.BranchPair, error) {
	if len(overrideValues) == 0 {
		return nil, nil
	}

	branchOverrides := map[string]rebase.BranchPair{}
	for _, overrideValue := range overrideValues {
		assignmentIndex := strings.Index(overrideValue, overrideAssignmentSeparatorConstant)
		if assignmentIndex <= 0 {
			return nil, fmt.Errorf(invalidOverrideTemplateConstant, overrideValue)
		}

		repositoryToken := overrideValue[:assignmentIndex]
		branchesValue := overrideValue[assignmentIndex+1:]
		sourceBranch, targetBranch, separatorFound := strings.Cut(branchesValue, overrideBranchSeparatorConstant)
		if !separatorFound {
			return nil, fmt.Errorf(invalidOverrideTemplateConstant, overrideValue)
		}

		branchOverrides[repositoryToken] = rebase.BranchPair{Source: sourceBranch, Target: targetBranch}
	}
	return branchOverrides, nil
}

// branchOverrideDocument is the YAML shape accepted by --branches-file: a map
// of repository name, relative path, or absolute path to a branch pair.
type branchOverrideDocument map[string]struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// loadBranchOverridesFile reads a YAML branch override document from disk.
func loadBranchOverridesFile(overrideFilePath string) (map[string]rebase.BranchPair, error) {
	fileContents, readError := os.ReadFile(overrideFilePath)
	if readError != nil {
		return nil, fmt.Errorf(branchFileReadErrorTemplateConstant, overrideFilePath, readError)
	}

	overrideDocument := branchOverrideDocument{}
	if unmarshalError := yaml.Unmarshal(fileContents, &overrideDocument); unmarshalError != nil {
		return nil, fmt.Errorf(branchFileParseErrorTemplateConstant, overrideFilePath, unmarshalError)
	}

	branchOverrides := make(map[string]rebase.BranchPair, len(overrideDocument))
	for repositoryToken, overrideEntry := range overrideDocument {
		branchOverrides[repositoryToken] = rebase.BranchPair{Source: overrideEntry.Source, Target: overrideEntry.Target}
	}
	return branchOverrides, nil
}

// mergeBranchOverrides layers flag overrides over file overrides; entries
// supplied on the command line replace file entries for the same token.
func mergeBranchOverrides(fileOverrides map[string]rebase.BranchPair, flagOverrides map[string]rebase.BranchPair) map[string]rebase.BranchPair {
	if len(fileOverrides) == 0 {
		return flagOverrides
	}

	mergedOverrides := make(map[string]rebase.BranchPair, len(fileOverrides)+len(flagOverrides))
	for repositoryToken, overridePair := range fileOverrides {
		mergedOverrides[repositoryToken] = overridePair
	}
	for repositoryToken, overridePair := range flagOverrides {
		mergedOverrides[repositoryToken] = overridePair
	}
	return mergedOverrides
}
