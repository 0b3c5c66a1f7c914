package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/v1/processes/01ABC":           "/v1/processes/:id",
		"/v1/processes/01ABC/deadlines": "/v1/processes/:id/deadlines",
		"/v1/clients/42":                "/v1/clients/:id",
		"/v1/clients/42/extra/deep":     "/v1/clients/42/extra/deep",
		"/v1/tribunals":                 "/v1/tribunals",
		"/v1/tribunals?region=sp":       "/v1/tribunals",
		"/v1/accounts/abc/users":        "/v1/accounts/:id/users",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
