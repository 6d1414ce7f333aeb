// Package flagx holds helpers for sharing os.Args between several
// independent flag sets.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns the subset of args that belong to allowedFlags, together
// with their values. Both "-c conf.json" and "--config=conf.json" forms are
// recognised. A value is only consumed when the next argument does not start
// with a dash.
//
// The result is never nil.
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

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// FileFlags are the paths of optional configuration files given on the
// command line.
type FileFlags struct {
	// ConfigPath is set by -c or -config and points at a JSON config file.
	ConfigPath string
	// EnvPath is set by -env-file and points at a dotenv file.
	EnvPath string
}

// ParseFileFlags extracts -c/-config and -env-file from os.Args, ignoring
// every other flag so the main flag set can still parse them later.
func ParseFileFlags() FileFlags {
	var ff FileFlags

	args := FilterArgs(os.Args[1:], []string{"-c", "-config", "-env-file"})

	fs := flag.NewFlagSet("files", flag.ContinueOnError)
	fs.StringVar(&ff.ConfigPath, "config", "", "Path to config file")
	fs.StringVar(&ff.ConfigPath, "c", "", "Path to config file (short)")
	fs.StringVar(&ff.EnvPath, "env-file", "", "Path to dotenv file")
	_ = fs.Parse(args)

	return ff
}
