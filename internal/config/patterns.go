package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// ScrapePatterns is the JSON5 file format of FETCH_PATTERNS_FILE. Comments,
// unquoted keys and trailing commas are accepted; strings are double-quoted.
//
//	{
//	  // job boards that need a browser
//	  patterns: ["^https://herp\\.careers/[^/]+/[^/]+/[^/]+/?$"],
//	}
type ScrapePatterns struct {
	Patterns []string `json:"patterns"`
}

// LoadScrapePatterns reads the override list of browser-rendered URL patterns.
// An empty path returns nil, meaning the built-in list.
func LoadScrapePatterns(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scrape patterns: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	var sp ScrapePatterns
	if err := json5.Unmarshal(data, &sp); err != nil {
		return nil, fmt.Errorf("parse scrape patterns %s: %w", path, err)
	}
	return sp.Patterns, nil
}
