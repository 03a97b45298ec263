package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"timebuddy/internal/cli"
	"timebuddy/internal/model"
)

func isDateArg(s string) bool {
	_, err := model.ParseDateKey(strings.TrimSpace(s))
	return err == nil
}

func rewriteDirectDayLookupArgs(argv []string) []string {
	// `timebuddy 2024-01-05` works like `timebuddy day show 2024-01-05`.
	// Cobra treats the first non-flag token as a subcommand, so argv is
	// rewritten before parsing; persistent flags may come first.
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":    true,
		"--date":   true,
		"--format": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isDateArg(argv[i+1]) {
				out := make([]string, 0, len(argv)+2)
				out = append(out, argv[:i+1]...)
				out = append(out, "day", "show")
				out = append(out, argv[i+1:]...)
				return out
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") {
				continue
			}
			if boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
				continue
			}
			continue
		}

		if isDateArg(a) {
			out := make([]string, 0, len(argv)+2)
			out = append(out, argv[:i]...)
			out = append(out, "day", "show")
			out = append(out, argv[i:]...)
			return out
		}
		return argv
	}

	return argv
}

func main() {
	// A missing .env is fine; settings may come from config.yaml or the environment.
	_ = godotenv.Load()

	os.Args = rewriteDirectDayLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
