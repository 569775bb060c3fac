// Package authlink turns incoming deep links into auth sessions. The
// parser is total: any string can be fed to it and the worst outcome
// is "not an auth link".
package authlink

import (
	"net/url"
	"strings"
)

// The two logical routes that make a link an auth link.
const (
	PathCallback = "auth/callback"
	PathReset    = "auth/reset"
)

// Params is the normalized parameter set of one link, regardless of
// whether values arrived in the query string, the fragment, or a
// query embedded inside the fragment.
type Params struct {
	Code         string
	TokenHash    string
	Token        string
	Type         string
	Email        string
	AccessToken  string
	RefreshToken string
}

// Link is a recognized auth deep link.
type Link struct {
	Path   string
	Params Params
}

// Parse extracts a Link from a raw URL string. The second return is
// false when the string is not a recognized auth link: malformed URLs,
// unrelated routes, anything.
func Parse(raw string) (Link, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return Link{}, false
	}

	path := logicalPath(u)
	if path != PathCallback && path != PathReset {
		return Link{}, false
	}

	// Resolution order: query string, then fragment pairs, then a
	// query embedded in the fragment ("#/reset?token=..."). First
	// non-empty value wins.
	sources := []url.Values{
		u.Query(),
		fragmentValues(u.Fragment),
		embeddedFragmentQuery(u.Fragment),
	}

	return Link{
		Path: path,
		Params: Params{
			Code:         firstValue(sources, "code"),
			TokenHash:    firstValue(sources, "token_hash"),
			Token:        firstValue(sources, "token"),
			Type:         firstValue(sources, "type"),
			Email:        firstValue(sources, "email"),
			AccessToken:  firstValue(sources, "access_token"),
			RefreshToken: firstValue(sources, "refresh_token"),
		},
	}, true
}

// logicalPath normalizes the route regardless of how the platform
// encoded it. App schemes parse the first segment as a host
// (nocturne://auth/callback gives Host "auth"), universal links put
// everything in Path, and bare scheme:auth/callback arrives opaque.
func logicalPath(u *url.URL) string {
	var route string
	switch {
	case u.Opaque != "":
		route = u.Opaque
	case u.Scheme == "http" || u.Scheme == "https":
		route = u.Path
	default:
		route = u.Host + "/" + strings.TrimPrefix(u.Path, "/")
	}
	return strings.ToLower(strings.Trim(route, "/"))
}

func fragmentValues(fragment string) url.Values {
	if fragment == "" {
		return nil
	}
	values, err := url.ParseQuery(strings.TrimPrefix(fragment, "/"))
	if err != nil {
		return nil
	}
	return values
}

func embeddedFragmentQuery(fragment string) url.Values {
	idx := strings.Index(fragment, "?")
	if idx < 0 {
		return nil
	}
	values, err := url.ParseQuery(fragment[idx+1:])
	if err != nil {
		return nil
	}
	return values
}

func firstValue(sources []url.Values, key string) string {
	for _, source := range sources {
		if v := source.Get(key); v != "" {
			return v
		}
	}
	return ""
}
