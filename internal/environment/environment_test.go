package environment

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string        `env:"NAME" default:"anon"`
	Region  string        `env:"REGION"`
	Timeout time.Duration `env:"TIMEOUT" default:"5s"`
	Skipped string
}

func TestParseEnvTags_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("APP_REGION", "eur3")

	var s sample
	require.NoError(t, ParseEnvTags("APP", &s))

	assert.Equal(t, "anon", s.Name)
	assert.Equal(t, "eur3", s.Region)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Empty(t, s.Skipped)
}

func TestParseEnvTags_Duration(t *testing.T) {
	t.Setenv("APP_TIMEOUT", "1m30s")

	var s sample
	require.NoError(t, ParseEnvTags("APP", &s))
	assert.Equal(t, 90*time.Second, s.Timeout)
}

func TestParseEnvTags_ExistingValueBeatsDefault(t *testing.T) {
	s := sample{Name: "from-file"}
	require.NoError(t, ParseEnvTags("APP", &s))
	assert.Equal(t, "from-file", s.Name)
}

func TestParseEnvTags_EnvBeatsExistingValue(t *testing.T) {
	t.Setenv("APP_NAME", "from-env")

	s := sample{Name: "from-file"}
	require.NoError(t, ParseEnvTags("APP", &s))
	assert.Equal(t, "from-env", s.Name)
}

func TestParseEnvTags_BadDuration(t *testing.T) {
	t.Setenv("APP_TIMEOUT", "soon")

	var s sample
	err := ParseEnvTags("APP", &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Timeout")
}

func TestParseEnvTags_UnsupportedType(t *testing.T) {
	var cfg struct {
		Count int `env:"COUNT" default:"3"`
	}
	require.Error(t, ParseEnvTags("APP", &cfg))
}

func TestParseEnvTags_RequiresPointer(t *testing.T) {
	require.Error(t, ParseEnvTags("APP", sample{}))
}

func TestLoadPath_MissingFileIsNotAnError(t *testing.T) {
	require.NoError(t, LoadPath(filepath.Join(t.TempDir(), ".env")))
}

func TestLoadPath_DoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ENVTEST_A=file\nENVTEST_B=file\n"), 0600))

	t.Setenv("ENVTEST_A", "process")
	t.Setenv("ENVTEST_B", "")
	os.Unsetenv("ENVTEST_B")

	require.NoError(t, LoadPath(path))
	assert.Equal(t, "process", os.Getenv("ENVTEST_A"))
	assert.Equal(t, "file", os.Getenv("ENVTEST_B"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "TODO_LOG_LEVEL", Key("TODO", "LOG_LEVEL"))
	assert.Equal(t, "LOG_LEVEL", Key("", "LOG_LEVEL"))
}
