package obs

import "strings"

// collections whose immediate child segment is an opaque id.
var idCollections = []string{
	"/v1/processes",
	"/v1/clients",
	"/v1/deadlines",
	"/v1/products",
	"/v1/tribunals",
	"/v1/accounts",
	"/v1/users",
}

// CanonicalPath collapses resource identifiers to keep metric label
// cardinality bounded: /v1/processes/01ABC -> /v1/processes/:id.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	for _, prefix := range idCollections {
		if !strings.HasPrefix(path, prefix+"/") {
			continue
		}
		rest := strings.Trim(strings.TrimPrefix(path, prefix+"/"), "/")
		if rest == "" {
			return prefix
		}
		parts := strings.Split(rest, "/")
		switch len(parts) {
		case 1:
			return prefix + "/:id"
		case 2:
			return prefix + "/:id/" + parts[1]
		}
	}
	return path
}
