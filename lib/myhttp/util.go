package myhttp

import (
	"fmt"
	"net/http"
	"os"
)

func HostnameWithScheme(r *http.Request) string {
	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// GuessHostnameWithScheme derives the public base URL outside a request context,
// used when registering pubsub push subscriptions.
func GuessHostnameWithScheme() string {
	hostname := os.Getenv("SERVICE_URL")
	if hostname != "" {
		return hostname
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return fmt.Sprintf("http://localhost:%s", port)
}
