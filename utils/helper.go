package utils

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// GenerateAssetFilename names a stored image "<epoch-ms>-<original-basename>".
func GenerateAssetFilename(original string, now time.Time) string {
	name := SanitizeFileName(AssetBasename(original))
	if name == "" {
		name = "image"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), name)
}

// SanitizeFileName keeps letters, digits, dot, dash and underscore; spaces become underscores.
func SanitizeFileName(input string) string {
	input = strings.ReplaceAll(strings.TrimSpace(input), " ", "_")
	var out strings.Builder
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			out.WriteRune(r)
		}
	}
	return strings.TrimLeft(out.String(), ".")
}

// LocalIPv4 returns the first non-loopback IPv4 address of this host.
func LocalIPv4() (string, bool) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", false
	}
	return firstIPv4(addrs)
}

func firstIPv4(addrs []net.Addr) (string, bool) {
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if ip4 := ip.To4(); ip4 != nil {
			return ip4.String(), true
		}
	}
	return "", false
}
