package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientAddress(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"xff first entry trimmed", map[string]string{"x-forwarded-for": " 1.2.3.4 , 5.6.7.8 "}, "1.2.3.4"},
		{"xff single", map[string]string{"X-Forwarded-For": "9.9.9.9"}, "9.9.9.9"},
		{"xff wins over real ip", map[string]string{"X-Forwarded-For": "1.1.1.1", "X-Real-IP": "2.2.2.2"}, "1.1.1.1"},
		{"real ip verbatim", map[string]string{"X-Real-IP": " 2.2.2.2 "}, " 2.2.2.2 "},
		{"real ip wins over cloudflare", map[string]string{"X-Real-IP": "2.2.2.2", "CF-Connecting-IP": "3.3.3.3"}, "2.2.2.2"},
		{"cloudflare", map[string]string{"cf-connecting-ip": "3.3.3.3"}, "3.3.3.3"},
		{"none", nil, "unknown"},
		{"present but empty xff", map[string]string{"X-Forwarded-For": "", "X-Real-IP": "2.2.2.2"}, ""},
		{"present but empty real ip", map[string]string{"X-Real-IP": ""}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
			r.RemoteAddr = "10.0.0.9:5555"
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			if got := ClientAddress(r); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestClientAddress_IgnoresRemoteAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	if got := ClientAddress(r); got != UnknownClient {
		t.Fatalf("expected %q, got %q", UnknownClient, got)
	}
}
