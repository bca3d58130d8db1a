package cachedpath

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/asaskevich/govalidator"
)

// isRemote reports whether identifier should be treated as a remote URL
// (scheme http or https). An identifier with an http or https scheme that
// fails to parse or validate is reported through isRemote returning a
// non-nil error rather than silently falling through to the local-path
// branch, matching the teacher's validateRequest pattern of rejecting
// malformed input early with govalidator. Any other scheme (e.g. ftp://) is
// treated as a local path.
func isRemote(identifier string) (remote bool, u *url.URL, err error) {
	parsed, parseErr := url.Parse(identifier)
	if parseErr != nil {
		lower := strings.ToLower(identifier)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			return true, nil, fmt.Errorf("%w: %q", ErrInvalidURL, identifier)
		}
		return false, nil, nil
	}
	if parsed.Scheme == "" {
		return false, nil, nil
	}

	switch parsed.Scheme {
	case "http", "https":
	default:
		return false, nil, nil
	}

	if parsed.Host == "" || !govalidator.IsRequestURL(identifier) {
		return true, nil, fmt.Errorf("%w: %q", ErrInvalidURL, identifier)
	}

	return true, parsed, nil
}

// classify resolves identifier to either a remote URL or a validated local
// path. For a local identifier, the path must exist on disk.
func classify(identifier string) (remote bool, u *url.URL, localPath string, err error) {
	remote, u, err = isRemote(identifier)
	if err != nil {
		return remote, nil, "", err
	}
	if remote {
		return true, u, "", nil
	}

	if _, statErr := os.Stat(identifier); statErr != nil {
		return false, nil, "", fmt.Errorf("%w: %s", ErrResourceNotFound, identifier)
	}

	return false, nil, identifier, nil
}
