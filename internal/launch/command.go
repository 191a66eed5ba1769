package launch

import (
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Interpreter describes how a script type is run.
type Interpreter struct {
	// Programs are tried in order; the first found on PATH is used.
	Programs []string
	// Args precede the script path.
	Args []string
}

// DefaultInterpreters maps lower-case file extensions to interpreters.
var DefaultInterpreters = map[string]Interpreter{
	".py":  {Programs: []string{"python3", "python"}},
	".sh":  {Programs: []string{"sh"}},
	".bat": {Programs: []string{"cmd"}, Args: []string{"/C"}},
	".cmd": {Programs: []string{"cmd"}, Args: []string{"/C"}},
}

// commandLine returns the program and arguments used to start exe.
func commandLine(exe string, interpreters map[string]Interpreter, lookPath func(string) (string, error)) (string, []string, error) {
	in, ok := interpreters[strings.ToLower(filepath.Ext(exe))]
	if !ok {
		return exe, nil, nil
	}
	var lastErr error
	for _, prog := range in.Programs {
		path, err := lookPath(prog)
		if err == nil {
			args := append(append([]string{}, in.Args...), exe)
			return path, args, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = exec.ErrNotFound
	}
	return "", nil, lastErr
}

// mergeEnv overlays overrides onto base (KEY=VALUE form). Later layers win.
func mergeEnv(base []string, layers ...map[string]string) []string {
	merged := make(map[string]string, len(base))
	order := make([]string, 0, len(base))
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, seen := merged[k]; !seen {
			order = append(order, k)
		}
		merged[k] = v
	}

	for _, layer := range layers {
		keys := make([]string, 0, len(layer))
		for k := range layer {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, seen := merged[k]; !seen {
				order = append(order, k)
			}
			merged[k] = layer[k]
		}
	}

	env := make([]string, 0, len(order))
	for _, k := range order {
		env = append(env, k+"="+merged[k])
	}
	return env
}
