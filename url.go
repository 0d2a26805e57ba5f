package sitemap

import (
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

// FixCommonURLMistakes repairs the small set of malformations seen in the
// wild often enough to be worth tolerating before validation: surrounding
// whitespace, and a doubled scheme ("http://http://example.com/...").
func FixCommonURLMistakes(rawURL string) string {
	fixed := strings.TrimSpace(rawURL)

	for _, scheme := range []string{"http://", "https://"} {
		doubled := scheme + scheme
		if strings.HasPrefix(fixed, doubled) {
			fixed = fixed[len(scheme):]
			break
		}
	}

	return fixed
}

// IsHTTPURL reports whether rawURL is an absolute, well-formed http(s) URL.
func IsHTTPURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	if parsed.Host == "" {
		return false
	}

	return true
}

// NormalizeURL lowercases the scheme and host, strips the fragment and a
// default port, percent-encodes the path/query per RFC 3986, resolves dot
// segments, and trims whitespace. It fails with an *InvalidURLError when
// rawURL is empty, unparseable, or not HTTP(S).
func NormalizeURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", &InvalidURLError{URL: rawURL, Reason: "empty URL"}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", &InvalidURLError{URL: rawURL, Reason: err.Error()}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", &InvalidURLError{URL: rawURL, Reason: "scheme is not http(s)"}
	}

	if parsed.Host == "" {
		return "", &InvalidURLError{URL: rawURL, Reason: "missing host"}
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)

	host, port := splitHostPort(parsed.Host)
	host = strings.ToLower(host)
	asciiHost, err := idna.Lookup.ToASCII(host)
	if err == nil {
		host = asciiHost
	}

	if isDefaultPort(parsed.Scheme, port) {
		parsed.Host = host
	} else if port != "" {
		parsed.Host = host + ":" + port
	} else {
		parsed.Host = host
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""

	parsed.Path = resolveDotSegments(parsed.Path)
	if parsed.Path == "" {
		parsed.Path = "/"
	}

	parsed.RawQuery = normalizeQuery(parsed.RawQuery)

	return parsed.String(), nil
}

func splitHostPort(hostport string) (host, port string) {
	if strings.HasPrefix(hostport, "[") {
		// IPv6 literal; net/url already validated brackets.
		if idx := strings.LastIndex(hostport, "]:"); idx != -1 {
			return hostport[:idx+1], hostport[idx+2:]
		}
		return hostport, ""
	}
	if idx := strings.LastIndex(hostport, ":"); idx != -1 {
		return hostport[:idx], hostport[idx+1:]
	}
	return hostport, ""
}

func isDefaultPort(scheme, port string) bool {
	if port == "" {
		return true
	}
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

// resolveDotSegments implements RFC 3986 §5.2.4 without requiring the path
// to already be absolute (url.URL.Path is stored decoded).
func resolveDotSegments(path string) string {
	if path == "" {
		return path
	}

	leadingSlash := strings.HasPrefix(path, "/")
	segments := strings.Split(path, "/")
	out := make([]string, 0, len(segments))

	for _, seg := range segments {
		switch seg {
		case ".":
			// drop
		case "..":
			if len(out) > 0 && out[len(out)-1] != "" {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}

	resolved := strings.Join(out, "/")
	if leadingSlash && !strings.HasPrefix(resolved, "/") {
		resolved = "/" + resolved
	}
	return resolved
}

// normalizeQuery sorts query parameters by key for stable, comparable
// output while preserving multi-valued parameters in their original order.
func normalizeQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	encoded := url.Values{}
	for _, k := range keys {
		encoded[k] = values[k]
	}
	return encoded.Encode()
}
