package flags

import "strings"

// PrefixEnvVar returns the env var name for a flag, under the given service prefix.
func PrefixEnvVar(prefix, suffix string) []string {
	return []string{prefix + "_" + strings.ToUpper(strings.ReplaceAll(suffix, "-", "_"))}
}
