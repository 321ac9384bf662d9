package proxy

import "strings"

// ExtractPodID returns the first non-empty path segment of a request path.
//
// The pod id is opaque: beyond being non-empty no validation is imposed, and
// matching against backend identities is exact string comparison. Repeated
// slashes and a missing leading slash are tolerated, so "//alpha//x" and
// "alpha/x" both yield "alpha".
//
// A path with no non-empty segment ("/", "", "///") returns a NoPodIDError;
// the caller rejects the request before any discovery work happens.
func ExtractPodID(path string) (string, error) {
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			return segment, nil
		}
	}
	return "", NewNoPodIDError(path)
}
