package procinfo

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescribe_Self(t *testing.T) {
	out, err := Describe(int32(os.Getpid()))
	require.NoError(t, err)
	require.Contains(t, out, "child pid")
	require.Contains(t, out, "rss:")
}

func TestDescribe_MissingProcess(t *testing.T) {
	// PIDs this large do not exist on Linux default settings.
	_, err := Describe(1 << 30)
	require.Error(t, err)
}
