package domain

import "fmt"

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformMessenger Platform = "messenger"
	PlatformWhatsApp  Platform = "whatsapp"
)

// Platforms lists every supported platform.
var Platforms = []Platform{PlatformInstagram, PlatformMessenger, PlatformWhatsApp}

// ParsePlatform maps a URL path segment to a Platform.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range Platforms {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}
