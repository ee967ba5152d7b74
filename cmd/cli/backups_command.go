package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	backupsCommandUseConstant         = "backups"
	backupsCommandShortConstant       = "Manage lockstep backup branches across the hierarchy"
	backupsListUseConstant            = "list"
	backupsListShortConstant          = "List backup branches in every repository"
	backupsRestoreUseConstant         = "restore"
	backupsRestoreShortConstant       = "Restore a branch from its backups in every repository"
	backupsDeleteUseConstant          = "delete"
	backupsDeleteShortConstant        = "Delete backup branches across the hierarchy"
	branchFlagNameConstant            = "branch"
	branchFlagUsageConstant           = "Original branch the backups protect."
	sessionFlagNameConstant           = "session"
	sessionRestoreFlagUsageConstant   = "Backup session to restore; latest per repository when omitted."
	sessionDeleteFlagUsageConstant    = "Backup session to delete; all sessions when omitted."
	branchRequiredErrorConstant       = "--branch is required"
	repositoryHeadingTemplateConstant = "%s (%s)\n"
	backupRowTemplateConstant         = "  %s  branch=%s session=%s\n"
	noBackupsRowConstant              = "  (no backups)"
	restoreDoneMessageConstant        = "Restore complete."
	deleteDoneMessageConstant         = "Backup deletion complete."
)

func (application *Application) buildBackupsCommand() *cobra.Command {
	backupsCommand := &cobra.Command{
		Use:   backupsCommandUseConstant,
		Short: backupsCommandShortConstant,
	}

	backupsCommand.AddCommand(application.buildBackupsListCommand())
	backupsCommand.AddCommand(application.buildBackupsRestoreCommand())
	backupsCommand.AddCommand(application.buildBackupsDeleteCommand())

	return backupsCommand
}

func (application *Application) buildBackupsListCommand() *cobra.Command {
	var rootPath string

	listCommand := &cobra.Command{
		Use:   backupsListUseConstant,
		Short: backupsListShortConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			commandToolset, toolsetError := application.buildToolset()
			if toolsetError != nil {
				return toolsetError
			}

			repositoryListings, listingError := commandToolset.orchestrator.ListBackups(command.Context(), application.resolveRootPath(rootPath))
			if listingError != nil {
				return listingError
			}

			for _, repositoryListing := range repositoryListings {
				fmt.Fprintf(command.OutOrStdout(), repositoryHeadingTemplateConstant, repositoryListing.RepositoryName, repositoryListing.RepositoryPath)
				if len(repositoryListing.Entries) == 0 {
					fmt.Fprintln(command.OutOrStdout(), noBackupsRowConstant)
					continue
				}
				for _, backupEntry := range repositoryListing.Entries {
					fmt.Fprintf(command.OutOrStdout(), backupRowTemplateConstant,
						backupEntry.BranchName, backupEntry.OriginalBranch, backupEntry.Session)
				}
			}
			return nil
		},
	}

	listCommand.Flags().StringVar(&rootPath, rootFlagNameConstant, "", rootFlagUsageConstant)
	return listCommand
}

func (application *Application) buildBackupsRestoreCommand() *cobra.Command {
	var rootPath string
	var originalBranch string
	var session string

	restoreCommand := &cobra.Command{
		Use:   backupsRestoreUseConstant,
		Short: backupsRestoreShortConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			if originalBranch == "" {
				return fmt.Errorf(branchRequiredErrorConstant)
			}

			commandToolset, toolsetError := application.buildToolset()
			if toolsetError != nil {
				return toolsetError
			}

			restoreError := commandToolset.orchestrator.RestoreBackups(command.Context(), application.resolveRootPath(rootPath), originalBranch, session)
			if restoreError != nil {
				return restoreError
			}

			fmt.Fprintln(command.OutOrStdout(), restoreDoneMessageConstant)
			return nil
		},
	}

	restoreCommand.Flags().StringVar(&rootPath, rootFlagNameConstant, "", rootFlagUsageConstant)
	restoreCommand.Flags().StringVar(&originalBranch, branchFlagNameConstant, "", branchFlagUsageConstant)
	restoreCommand.Flags().StringVar(&session, sessionFlagNameConstant, "", sessionRestoreFlagUsageConstant)
	return restoreCommand
}

func (application *Application) buildBackupsDeleteCommand() *cobra.Command {
	var rootPath string
	var session string

	deleteCommand := &cobra.Command{
		Use:   backupsDeleteUseConstant,
		Short: backupsDeleteShortConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			commandToolset, toolsetError := application.buildToolset()
			if toolsetError != nil {
				return toolsetError
			}

			deletionError := commandToolset.orchestrator.DeleteSessionBackups(command.Context(), application.resolveRootPath(rootPath), session)
			if deletionError != nil {
				return deletionError
			}

			fmt.Fprintln(command.OutOrStdout(), deleteDoneMessageConstant)
			return nil
		},
	}

	deleteCommand.Flags().StringVar(&rootPath, rootFlagNameConstant, "", rootFlagUsageConstant)
	deleteCommand.Flags().StringVar(&session, sessionFlagNameConstant, "", sessionDeleteFlagUsageConstant)
	return deleteCommand
}
