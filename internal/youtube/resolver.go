package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrUnresolvable means the input does not identify a channel. Retrying with
// the same input cannot succeed.
var ErrUnresolvable = errors.New("youtube: could not resolve channel")

// channelIDPattern matches canonical channel ids: "UC" plus 22 url-safe chars.
var channelIDPattern = regexp.MustCompile(`^UC[\w-]{22}$`)

// ChannelSearcher finds the channel id for a handle or legacy name.
type ChannelSearcher interface {
	SearchChannelID(ctx context.Context, query string) (string, error)
}

// Resolver turns user supplied channel URLs and handles into channel ids.
type Resolver struct {
	searcher ChannelSearcher
}

// NewResolver creates a Resolver backed by searcher.
func NewResolver(searcher ChannelSearcher) *Resolver {
	return &Resolver{searcher: searcher}
}

// IsChannelID reports whether s already has the canonical channel id shape.
func IsChannelID(s string) bool {
	return channelIDPattern.MatchString(s)
}

// ResolveChannelID returns the canonical channel id for raw. Canonical ids in
// the input are returned without any network call; anything else is looked
// up with a channel search and the first hit wins.
func (r *Resolver) ResolveChannelID(ctx context.Context, raw string) (string, error) {
	identifier, err := IdentifierFromURL(raw)
	if err != nil {
		return "", err
	}
	if IsChannelID(identifier) {
		return identifier, nil
	}

	id, err := r.searcher.SearchChannelID(ctx, identifier)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", identifier, err)
	}
	if id == "" {
		return "", fmt.Errorf("%w: no channel matches %q", ErrUnresolvable, identifier)
	}
	return id, nil
}

// IdentifierFromURL extracts the last non-empty path segment of a channel URL.
// A bare "@handle" or channel id is accepted as is.
func IdentifierFromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty input", ErrUnresolvable)
	}
	if strings.HasPrefix(raw, "@") || IsChannelID(raw) {
		return strings.TrimRight(raw, "/"), nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: invalid url %q", ErrUnresolvable, raw)
	}

	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg, err := url.PathUnescape(segments[i])
		if err != nil {
			seg = segments[i]
		}
		if seg = strings.TrimSpace(seg); seg != "" {
			return seg, nil
		}
	}
	return "", fmt.Errorf("%w: no path in %q", ErrUnresolvable, raw)
}
