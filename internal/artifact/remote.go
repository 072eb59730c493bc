package artifact

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrMalformedRemoteURL is returned when a remote URL is neither SSH nor HTTPS form.
var ErrMalformedRemoteURL = errors.New("malformed remote URL")

// Both patterns are unanchored and greedy: the leftmost match wins and captures
// extend to the last "@", ":" or ".git" they can reach.
var (
	sshRemotePattern   = regexp.MustCompile(`.*@(?P<host>.*):(?P<path>.*)\.git`)
	httpsRemotePattern = regexp.MustCompile(`(?P<base>https://.*)\.git`)
)

// ResolveRemote turns a configured remote URL into the HTTPS web root of the project.
//
//	git@gitlab.com:group/project.git     -> https://gitlab.com/group/project
//	https://gitlab.com/group/project.git -> https://gitlab.com/group/project
func ResolveRemote(remoteURL string) (string, error) {
	if match := sshRemotePattern.FindStringSubmatch(remoteURL); match != nil {
		host := match[sshRemotePattern.SubexpIndex("host")]
		path := match[sshRemotePattern.SubexpIndex("path")]

		return "https://" + host + "/" + path, nil
	}

	if match := httpsRemotePattern.FindStringSubmatch(remoteURL); match != nil {
		return match[httpsRemotePattern.SubexpIndex("base")], nil
	}

	return "", fmt.Errorf("%w: %q", ErrMalformedRemoteURL, remoteURL)
}
