package schema

import (
	"net/http"
	"net/url"
	"path"
	"strings"
)

// RequestDescriptor is the canonical form of an intercepted request.
// It is constructed once per request and never mutated afterward.
type RequestDescriptor struct {
	Method      string      // HTTP method, upper case
	URL         string      // Absolute URL of the target resource
	Path        string      // URL path component
	Query       url.Values  // Parsed query parameters
	Destination Destination // Declared destination (document, script, ...)
	Header      http.Header // Relevant request headers; not part of the key
	Body        []byte      // Buffered request body; not part of the key
}

// Key returns the canonical cache key for the descriptor. Only method
// and absolute URL participate; headers and body are deliberately
// excluded so that snapshots are keyed by logical resource.
func (d RequestDescriptor) Key() string {
	return d.Method + " " + d.URL
}

// IsMutating reports whether the request's method can change state on
// the origin. Mutating requests are never cached and never served
// from a snapshot.
func (d RequestDescriptor) IsMutating() bool {
	switch d.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

// NewRequestDescriptor builds a descriptor for a method and absolute
// URL. The URL must parse; callers constructing descriptors from
// already-parsed requests should fill the struct directly.
func NewRequestDescriptor(method, rawURL string) (RequestDescriptor, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return RequestDescriptor{}, err
	}
	return RequestDescriptor{
		Method:      strings.ToUpper(method),
		URL:         rawURL,
		Path:        u.Path,
		Query:       u.Query(),
		Destination: DestinationFor(u.Path, nil),
		Header:      http.Header{},
	}, nil
}

// extensionDestinations maps file extensions to asset destinations,
// used when the client does not declare a destination itself.
var extensionDestinations = map[string]Destination{
	".css":   StyleDestination,
	".js":    ScriptDestination,
	".mjs":   ScriptDestination,
	".png":   ImageDestination,
	".jpg":   ImageDestination,
	".jpeg":  ImageDestination,
	".gif":   ImageDestination,
	".webp":  ImageDestination,
	".svg":   ImageDestination,
	".ico":   ImageDestination,
	".woff":  FontDestination,
	".woff2": FontDestination,
	".ttf":   FontDestination,
	".otf":   FontDestination,
	".html":  DocumentDestination,
}

// DestinationFor derives the destination of a request from its declared
// Sec-Fetch-Dest header when present, falling back to the path's file
// extension. Unrecognized inputs yield UnknownDestination.
func DestinationFor(urlPath string, header http.Header) Destination {
	if header != nil {
		switch Destination(header.Get("Sec-Fetch-Dest")) {
		case DocumentDestination:
			return DocumentDestination
		case ImageDestination:
			return ImageDestination
		case StyleDestination:
			return StyleDestination
		case ScriptDestination:
			return ScriptDestination
		case FontDestination:
			return FontDestination
		}
	}
	ext := strings.ToLower(path.Ext(urlPath))
	if dest, ok := extensionDestinations[ext]; ok {
		return dest
	}
	if urlPath == "/" || strings.HasSuffix(urlPath, "/") {
		return DocumentDestination
	}
	return UnknownDestination
}
