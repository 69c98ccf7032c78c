package config

import (
	"flag"
	"os"
	"strings"
)

// filterArgs keeps only the listed flags (and the value following each one)
// so that several flag sets can share os.Args without tripping over each
// other's flags. Both "-f value" and "-f=value" forms are recognised.
func filterArgs(args []string, allowed []string) []string {
	keep := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		keep[f] = struct{}{}
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, found := strings.Cut(arg, "="); found && strings.HasPrefix(arg, "-") {
			if _, ok := keep[name]; ok {
				out = append(out, arg)
			}
			continue
		}

		if _, ok := keep[arg]; !ok {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// configFilePath returns the value of -c / -config, or "" when absent.
func configFilePath() string {
	var path string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(filterArgs(os.Args[1:], []string{"-c", "-config"}))

	return path
}
