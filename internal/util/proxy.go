package util

import (
	"net/http"
	"net/url"
)

// ProxyFunc builds the proxy selector for an outbound transport.
// Explicitly configured proxies win over the environment; with neither
// configured, selection defers to HTTP_PROXY/HTTPS_PROXY entirely.
func ProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		proxy := httpProxy
		if req.URL.Scheme == "https" && httpsProxy != "" {
			proxy = httpsProxy
		}
		if proxy == "" {
			return http.ProxyFromEnvironment(req)
		}
		return url.Parse(proxy)
	}
}
