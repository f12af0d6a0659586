package lmstudio

// allowedTools is the fixed set of tool names exposed to the local backend.
// Declarations outside this set are silently dropped before translation;
// local models get confused by large tool lists, so only the file and shell
// primitives go through.
var allowedTools = map[string]struct{}{
	"list_directory":      {},
	"read_file":           {},
	"search_file_content": {},
	"glob":                {},
	"write_file":          {},
	"replace":             {},
	"run_shell_command":   {},
}

func isAllowedTool(name string) bool {
	_, ok := allowedTools[name]
	return ok
}
