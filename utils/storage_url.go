package utils

import (
	"fmt"
	"strings"
)

// AssetsRoutePrefix is where stored product images are served from.
const AssetsRoutePrefix = "/assets"

// BuildBaseURL joins the detected host address and bound port.
func BuildBaseURL(host string, port int) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// BuildAssetURL maps a locally stored image path to its fetchable URL.
func BuildAssetURL(baseURL string, localPath string) string {
	return strings.TrimRight(baseURL, "/") + AssetsRoutePrefix + "/" + AssetBasename(localPath)
}

// IsAbsoluteURL reports whether value already points at an http(s) resource.
func IsAbsoluteURL(value string) bool {
	lower := strings.ToLower(strings.TrimSpace(value))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// AssetBasename returns the last path element of a stored image path.
// Paths written by the desktop shell may use either separator.
func AssetBasename(localPath string) string {
	localPath = strings.TrimSpace(localPath)
	localPath = strings.TrimRight(localPath, `/\`)
	if i := strings.LastIndexAny(localPath, `/\`); i >= 0 {
		return localPath[i+1:]
	}
	return localPath
}
