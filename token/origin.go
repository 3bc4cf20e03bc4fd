package token

import (
	"fmt"
	"net/url"
	"strings"
)

// OriginKey turns an API base URL into the name its session is stored under,
// so two backends never share a TokenPair. "http://127.0.0.1:8000/api" becomes
// "http_127.0.0.1_8000".
func OriginKey(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("[token OriginKey] invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("[token OriginKey] base url %q has no scheme or host", baseURL)
	}
	key := strings.ToLower(u.Scheme + "_" + u.Host)
	return strings.NewReplacer(":", "_", "/", "_", "[", "", "]", "").Replace(key), nil
}
