package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxLevenshteinDistance = 3

// knownKeys are the valid dotted keys in the config file.
var knownKeys = map[string]bool{
	"oauth.client_id": true, "oauth.client_secret": true, "oauth.api_key": true,
	"oauth.project_number": true, "oauth.scope": true,
	"drive.support_all_drives": true, "drive.base_url": true, "drive.upload_url": true,
	"logging.log_level": true,
	"network.timeout":   true, "network.user_agent": true,
}

// knownSections are the valid top-level tables.
var knownSections = map[string]bool{
	"oauth": true, "drive": true, "logging": true, "network": true,
}

// knownKeysList is the sorted slice form of knownKeys, sorted for
// deterministic suggestions when two candidates tie.
var knownKeysList = sortedKeys(knownKeys)

var knownSectionsList = sortedKeys(knownSections)

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns
// an error with "did you mean?" suggestions for each unknown key. Keys under
// an unknown section are reported once, as the section.
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	var errs []error

	seenSections := make(map[string]bool)

	for _, key := range undecoded {
		keyStr := key.String()
		section := strings.SplitN(keyStr, ".", 2)[0]

		if !knownSections[section] {
			if !seenSections[section] {
				seenSections[section] = true
				errs = append(errs, unknownError("config section", section, knownSectionsList))
			}

			continue
		}

		errs = append(errs, unknownError("config key", keyStr, knownKeysList))
	}

	return errors.Join(errs...)
}

func unknownError(kind, name string, known []string) error {
	if suggestion := closestMatch(name, known); suggestion != "" {
		return fmt.Errorf("unknown %s %q, did you mean %q?", kind, name, suggestion)
	}

	return fmt.Errorf("unknown %s %q", kind, name)
}

// closestMatch finds the closest known key by Levenshtein distance.
// Returns empty string if no match is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		d := levenshtein(unknown, k)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}

	if bestDist <= maxLevenshteinDistance {
		return best
	}

	return ""
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	// Single-row optimization avoids allocating a full matrix.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1

		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = min(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}
