package config

import (
	"net/url"
	"strings"
)

// RedactURL replaces the password in a cassandra:// URL with "***" so it can
// be logged. URLs that do not parse or carry no password are returned as is.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}

	if _, ok := u.User.Password(); !ok {
		return raw
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}

	authority := rest
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		authority = rest[:end]
	}

	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return raw
	}

	user, _, _ := strings.Cut(authority[:at], ":")

	return scheme + "://" + user + ":***" + rest[at:]
}
