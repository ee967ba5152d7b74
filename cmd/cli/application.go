package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/lockstep/internal/execshell"
	"github.com/temirov/lockstep/internal/gitrepo"
	"github.com/temirov/lockstep/internal/hierarchy"
	"github.com/temirov/lockstep/internal/rebase"
	"github.com/temirov/lockstep/internal/tracker"
	"github.com/temirov/lockstep/internal/ui"
	"github.com/temirov/lockstep/internal/utils"
)

const (
	applicationNameConstant                 = "lockstep"
	applicationShortDescriptionConstant     = "Lockstep rebase orchestration across submodule hierarchies"
	applicationLongDescriptionConstant      = "lockstep rebases a feature branch onto a target branch across a hierarchy of git repositories linked by submodules, rewriting child commits first and reconciling parent gitlink pointers automatically."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	rebaseRootConfigKeyConstant             = "rebase.root_path"
	rebaseSourceConfigKeyConstant           = "rebase.source_branch"
	rebaseTargetConfigKeyConstant           = "rebase.target_branch"
	rebaseRemoteConfigKeyConstant           = "rebase.remote"
	rebasePushConfigKeyConstant             = "rebase.push"
	defaultRemoteNameConstant               = "origin"
	environmentPrefixConstant               = "LOCKSTEP"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	defaultConfigurationSearchPathConstant  = "."
	defaultRootPathConstant                 = "."
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Rebase RebaseConfiguration            `mapstructure:"rebase"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// RebaseConfiguration stores rebase defaults that flags may override.
type RebaseConfiguration struct {
	RootPath     string `mapstructure:"root_path"`
	SourceBranch string `mapstructure:"source_branch"`
	TargetBranch string `mapstructure:"target_branch"`
	Remote       string `mapstructure:"remote"`
	Push         bool   `mapstructure:"push"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
}

// toolset bundles the collaborators every command wires the same way: a shell
// executor behind a backend factory, one shared commit tracker, a discoverer,
// and an orchestrator speaking to the operator through the console prompter.
type toolset struct {
	orchestrator *rebase.Orchestrator
	discoverer   *hierarchy.Discoverer
	prompter     *ui.ConsolePrompter
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	cobraCommand.AddCommand(application.buildRebaseCommand())
	cobraCommand.AddCommand(application.buildBackupsCommand())
	cobraCommand.AddCommand(application.buildHierarchyCommand())
	cobraCommand.AddCommand(application.buildStatusCommand())
	cobraCommand.AddCommand(application.buildValidateCommand())

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
		rebaseRootConfigKeyConstant:      defaultRootPathConstant,
		rebaseSourceConfigKeyConstant:    "",
		rebaseTargetConfigKeyConstant:    "",
		rebaseRemoteConfigKeyConstant:    defaultRemoteNameConstant,
		rebasePushConfigKeyConstant:      false,
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerInstance, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerInstance

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) buildToolset() (*toolset, error) {
	shellExecutor, executorError := execshell.NewShellExecutor(application.logger, execshell.NewOSCommandRunner())
	if executorError != nil {
		return nil, executorError
	}

	backendFactory, factoryError := gitrepo.NewManagerFactory(shellExecutor, application.logger)
	if factoryError != nil {
		return nil, factoryError
	}

	consolePrompter := ui.NewConsolePrompter(os.Stdin, utils.NewFlushingWriter(os.Stdout))
	globalTracker := tracker.NewGlobalTracker(application.logger)

	hierarchyDiscoverer, discovererError := hierarchy.NewDiscoverer(backendFactory, globalTracker, consolePrompter, application.logger)
	if discovererError != nil {
		return nil, discovererError
	}

	rebaseOrchestrator, orchestratorError := rebase.NewOrchestrator(hierarchyDiscoverer, globalTracker, consolePrompter, application.logger)
	if orchestratorError != nil {
		return nil, orchestratorError
	}
	rebaseOrchestrator.SetRemoteName(application.configuration.Rebase.Remote)

	return &toolset{
		orchestrator: rebaseOrchestrator,
		discoverer:   hierarchyDiscoverer,
		prompter:     consolePrompter,
	}, nil
}

func (application *Application) resolveRootPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if application.configuration.Rebase.RootPath != "" {
		return application.configuration.Rebase.RootPath
	}
	return defaultRootPathConstant
}

func (application *Application) flushLogger() error {
	return application.syncLoggerInstance(application.logger)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
