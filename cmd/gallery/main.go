package main

import (
	"os"
	"strings"

	"gallery-cli/internal/cli"
)

func isCollectionID(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "coll-") && len(s) > len("coll-")
}

// rewriteDirectCollectionArgs turns `gallery <coll-id>` into
// `gallery collections show <coll-id>`. Cobra treats the first positional
// token as a subcommand, so argv is rewritten before parsing.
func rewriteDirectCollectionArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":       true,
		"--format":    true,
		"--log-level": true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isCollectionID(argv[i+1]) {
				return insertShow(argv, i+1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if isCollectionID(a) {
			return insertShow(argv, i)
		}
		return argv
	}
	return argv
}

func insertShow(argv []string, at int) []string {
	out := make([]string, 0, len(argv)+2)
	out = append(out, argv[:at]...)
	out = append(out, "collections", "show")
	return append(out, argv[at:]...)
}

func main() {
	os.Args = rewriteDirectCollectionArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
