package cli

import (
	"net/url"
	"strings"

	"sqlpp/internal/domain"
)

// validateHostURL accepts a bare http(s) server URL: scheme and host, no
// path beyond "/", no query or fragment.
func validateHostURL(host string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return domain.ErrValidation("invalid remote %q: URL cannot be empty", host)
	}

	u, err := url.Parse(host)
	if err != nil {
		return domain.ErrValidation("invalid remote %q: %v", host, err)
	}
	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return domain.ErrValidation("invalid remote %q: scheme must be http or https", host)
	case u.Host == "":
		return domain.ErrValidation("invalid remote %q: missing host", host)
	case u.Path != "" && u.Path != "/":
		return domain.ErrValidation("invalid remote %q: URL must not include a path", host)
	case u.RawQuery != "" || u.Fragment != "":
		return domain.ErrValidation("invalid remote %q: URL must not include query or fragment", host)
	}
	return nil
}
