// Package flagx lets several flag sets share one command line: each
// component picks out only the flags it owns before parsing.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns the arguments of args that belong to one of names,
// in their original order. A value written as a separate argument
// ("-c conf.json") is kept with its flag, as is the "--config=conf.json" form.
// The result is never nil.
func FilterArgs(args []string, names []string) []string {
	owned := make(map[string]bool, len(names))
	for _, n := range names {
		owned[n] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		name, _, inline := strings.Cut(args[i], "=")
		if !strings.HasPrefix(name, "-") || !owned[name] {
			continue
		}
		out = append(out, args[i])
		if !inline && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

// ConfigPath returns the JSON config file named by -c or -config in args,
// or "" when neither is given. The last occurrence wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to the JSON config file")
	fs.StringVar(&path, "c", "", "path to the JSON config file (shorthand)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--c", "--config"}))

	return path
}
