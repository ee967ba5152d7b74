package cli_test

import (
	"testing"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/require"

	"github.com/temirov/lockstep/cmd/cli"
)

const (
	decoderTagNameConstant         = "mapstructure"
	configurationLogLevelConstant  = "debug"
	configurationLogFormatConstant = "console"
	configurationRootPathConstant  = "/workspace/superproject"
	configurationSourceConstant    = "feature/login"
	configurationTargetConstant    = "main"
	commonSectionKeyConstant       = "common"
	rebaseSectionKeyConstant       = "rebase"
	logLevelOptionKeyConstant      = "log_level"
	logFormatOptionKeyConstant     = "log_format"
	rootPathOptionKeyConstant      = "root_path"
	sourceBranchOptionKeyConstant  = "source_branch"
	targetBranchOptionKeyConstant  = "target_branch"
	remoteOptionKeyConstant        = "remote"
	pushOptionKeyConstant          = "push"
	configurationRemoteConstant    = "upstream"
)

func decodeConfigurationOptions(testingInstance testing.TB, options map[string]any, target any) {
	testingInstance.Helper()

	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: decoderTagNameConstant, Result: target})
	require.NoError(testingInstance, decoderError)

	decodeError := decoder.Decode(options)
	require.NoError(testingInstance, decodeError)
}

func TestApplicationConfigurationDecodesFromOptionMap(testInstance *testing.T) {
	configurationOptions := map[string]any{
		commonSectionKeyConstant: map[string]any{
			logLevelOptionKeyConstant:  configurationLogLevelConstant,
			logFormatOptionKeyConstant: configurationLogFormatConstant,
		},
		rebaseSectionKeyConstant: map[string]any{
			rootPathOptionKeyConstant:     configurationRootPathConstant,
			sourceBranchOptionKeyConstant: configurationSourceConstant,
			targetBranchOptionKeyConstant: configurationTargetConstant,
			remoteOptionKeyConstant:       configurationRemoteConstant,
			pushOptionKeyConstant:         true,
		},
	}

	var configuration cli.ApplicationConfiguration
	decodeConfigurationOptions(testInstance, configurationOptions, &configuration)

	require.Equal(testInstance, configurationLogLevelConstant, configuration.Common.LogLevel)
	require.Equal(testInstance, configurationLogFormatConstant, configuration.Common.LogFormat)
	require.Equal(testInstance, configurationRootPathConstant, configuration.Rebase.RootPath)
	require.Equal(testInstance, configurationSourceConstant, configuration.Rebase.SourceBranch)
	require.Equal(testInstance, configurationTargetConstant, configuration.Rebase.TargetBranch)
	require.Equal(testInstance, configurationRemoteConstant, configuration.Rebase.Remote)
	require.True(testInstance, configuration.Rebase.Push)
}
