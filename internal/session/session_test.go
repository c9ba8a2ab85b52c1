package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunhdeng/job-bot/internal/session"
)

func TestFileProviderNormalisesCookieString(t *testing.T) {
	dir := t.TempDir()
	raw := "wt2=abc123;  __zp_stoken__=xyz ; ;broken-part\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "boss_cookies.txt"), []byte(raw), 0o644))

	token, err := session.NewFileProvider(dir).Token("boss")
	require.NoError(t, err)
	assert.Equal(t, "wt2=abc123; __zp_stoken__=xyz", token)
}

func TestFileProviderMissingFile(t *testing.T) {
	_, err := session.NewFileProvider(t.TempDir()).Token("boss")
	assert.Error(t, err)
}

func TestFileProviderEmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "boss_cookies.txt"), []byte("  \n"), 0o644))

	_, err := session.NewFileProvider(dir).Token("boss")
	assert.Error(t, err)
}
