// Package session supplies opaque platform session tokens. Interactive login
// lives outside this service; the pipeline only consumes its result, a saved
// cookie string per platform.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Provider produces a valid session token for a platform at startup. The
// only in-band expiry signal afterwards is platform.ErrSessionExpired.
type Provider interface {
	Token(platform string) (string, error)
}

// FileProvider reads `;`-separated cookie strings saved by the login flow,
// one file per platform: <dir>/<platform>_cookies.txt.
type FileProvider struct {
	dir string
}

func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// Token reads and normalises the platform's cookie file. A missing or empty
// file means the platform cannot run this session.
func (p *FileProvider) Token(platform string) (string, error) {
	path := filepath.Join(p.dir, platform+"_cookies.txt")
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read cookie file %s: %w", path, err)
	}

	cookie := strings.TrimSpace(string(raw))
	if cookie == "" {
		return "", fmt.Errorf("cookie file %s is empty", path)
	}

	// Normalise separators so the header value is well formed regardless of
	// how the cookies were exported.
	parts := strings.Split(cookie, ";")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" && strings.Contains(part, "=") {
			cleaned = append(cleaned, part)
		}
	}
	if len(cleaned) == 0 {
		return "", fmt.Errorf("cookie file %s contains no cookie pairs", path)
	}
	return strings.Join(cleaned, "; "), nil
}
