package utils

import (
	"errors"
	"net/url"
	"strings"
)

// ExtractHost reduces a URL, IP or host:port target to a bare hostname.
func ExtractHost(input string) (string, error) {
	if input == "" {
		return "", errors.New("input cannot be empty")
	}

	host := strings.TrimSpace(input)

	if strings.Contains(host, "://") {
		parsedURL, err := url.Parse(host)
		if err != nil {
			return "", errors.New("invalid URL format")
		}

		if parsedURL.Hostname() == "" {
			return "", errors.New("no hostname found in URL")
		}

		host = parsedURL.Hostname()
	} else {
		if idx := strings.Index(host, "/"); idx >= 0 {
			host = host[:idx]
		}

		// Strip a :port suffix, leave IPv6 literals alone
		if strings.Count(host, ":") == 1 {
			host = host[:strings.Index(host, ":")]
		}
	}

	if host == "" {
		return "", errors.New("invalid host after processing")
	}

	return host, nil
}

// ExtractRawDomain additionally strips a www. prefix, for WHOIS and status
// page display.
func ExtractRawDomain(input string) (string, error) {
	domain, err := ExtractHost(input)

	if err != nil {
		return "", err
	}

	if strings.HasPrefix(strings.ToLower(domain), "www.") {
		domain = domain[4:]
	}

	if domain == "" {
		return "", errors.New("invalid domain after processing")
	}

	return domain, nil
}
