// Command daydayarxiv fetches daily arXiv papers, enriches them through LLM
// providers, and publishes JSON data files for the static frontend.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
