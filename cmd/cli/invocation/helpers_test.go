package invocation_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(testInstance *testing.T, path string, content string) {
	testInstance.Helper()
	require.NoError(testInstance, os.WriteFile(path, []byte(content), 0o600))
}
