// Command healthcheck probes the local moduway server and exits 0 when it
// responds. Container runtimes use the exit code directly.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

var readyFlag = flag.Bool("ready", false, "Probe /ready (full dependency check) instead of /healthz")

func main() {
	flag.Parse()

	port := os.Getenv("MODUWAY_PORT")
	if port == "" {
		port = "8000"
	}

	path := "/healthz"
	if *readyFlag {
		path = "/ready"
	}

	client := &http.Client{Timeout: 8 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://localhost:%s%s", port, path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "probe returned %d\n", resp.StatusCode)
		os.Exit(1)
	}
}
