package commands

import "strings"

// Aliases maps legacy command names to their current names.
var Aliases = map[string]string{
	"hash":     "pack",
	"check":    "verify",
	"compare":  "diff",
	"template": "init",
}

// valueFlags are persistent flags that consume the following argument.
var valueFlags = map[string]bool{
	"--config": true,
}

// ResolveAlias rewrites a legacy command name in args to its current name.
// It returns the rewritten args and the alias that was replaced, or "" when
// args already use a current name.
func ResolveAlias(args []string) ([]string, string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return args, ""
		}
		if strings.HasPrefix(arg, "-") {
			if valueFlags[arg] {
				i++
			}
			continue
		}

		target, ok := Aliases[arg]
		if !ok {
			return args, ""
		}
		out := make([]string, len(args))
		copy(out, args)
		out[i] = target
		return out, arg
	}
	return args, ""
}
