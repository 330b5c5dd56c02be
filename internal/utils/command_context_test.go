package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/sfdxwatch/internal/utils"
)

func TestCommandContextAccessorConfigurationFilePath(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	_, missing := accessor.ConfigurationFilePath(context.Background())
	require.False(testInstance, missing)

	executionContext := accessor.WithConfigurationFilePath(context.Background(), "/etc/sfdx-watch/config.yaml")
	filePath, available := accessor.ConfigurationFilePath(executionContext)
	require.True(testInstance, available)
	require.Equal(testInstance, "/etc/sfdx-watch/config.yaml", filePath)
}
