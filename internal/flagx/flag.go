// Package flagx lets several parsers share one command line. Config loading
// picks out the flags it owns while cobra handles the rest.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns only the allowed flags (and their values) from args.
//
// Supported formats:
//
//	-c conf.json           flag and value as separate arguments
//	--config=conf.json     flag and value joined with '='
//
// A value is taken from the next argument only when it does not itself look
// like a flag. The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigFileFlag extracts the JSON config path given via -c or --config.
// Everything else in args is ignored. Returns "" when neither is present.
func ConfigFileFlag(args []string) string {
	var path string

	filtered := FilterArgs(args, []string{"-c", "--c", "-config", "--config"})

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.SetOutput(discard{})
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(filtered)

	return path
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
