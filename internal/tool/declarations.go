package tool

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"github.com/mfukuda/comet-cli/pkg/message"
)

// Argument structs for the builtin tools. Schemas are reflected from these
// at startup so declarations and argument parsing cannot drift apart.

type listDirectoryArgs struct {
	Path string `json:"path" jsonschema:"required,description=Absolute path of the directory to list"`
}

type readFileArgs struct {
	AbsolutePath string `json:"absolute_path" jsonschema:"required,description=Absolute path of the file to read"`
	Offset       int    `json:"offset,omitempty" jsonschema:"description=Line number to start reading from"`
	Limit        int    `json:"limit,omitempty" jsonschema:"description=Maximum number of lines to read"`
}

type searchFileContentArgs struct {
	Pattern string `json:"pattern" jsonschema:"required,description=Regular expression to search for"`
	Path    string `json:"path,omitempty" jsonschema:"description=Directory to search in"`
	Include string `json:"include,omitempty" jsonschema:"description=Glob pattern filtering which files are searched"`
}

type globArgs struct {
	Pattern string `json:"pattern" jsonschema:"required,description=Glob pattern to match files against"`
	Path    string `json:"path,omitempty" jsonschema:"description=Directory to search in"`
}

type writeFileArgs struct {
	FilePath string `json:"file_path" jsonschema:"required,description=Absolute path of the file to write"`
	Content  string `json:"content" jsonschema:"required,description=Content to write to the file"`
}

type replaceArgs struct {
	FilePath  string `json:"file_path" jsonschema:"required,description=Absolute path of the file to modify"`
	OldString string `json:"old_string" jsonschema:"required,description=Exact text to replace"`
	NewString string `json:"new_string" jsonschema:"required,description=Text to replace it with"`
}

type runShellCommandArgs struct {
	Command     string `json:"command" jsonschema:"required,description=Shell command to execute"`
	Description string `json:"description,omitempty" jsonschema:"description=One-line description of what the command does"`
	Directory   string `json:"directory,omitempty" jsonschema:"description=Directory to run the command in"`
}

// Declarations returns the builtin tool declarations offered to every
// backend. The local adapter applies its own allow-list on top.
func Declarations() []message.Declaration {
	return []message.Declaration{
		declare("list_directory", "Lists the names of files and subdirectories directly within a directory.", listDirectoryArgs{}),
		declare("read_file", "Reads and returns the content of a file.", readFileArgs{}),
		declare("search_file_content", "Searches for a regular expression pattern within file contents.", searchFileContentArgs{}),
		declare("glob", "Finds files matching a glob pattern.", globArgs{}),
		declare("write_file", "Writes content to a file, creating it if needed.", writeFileArgs{}),
		declare("replace", "Replaces exact text within a file.", replaceArgs{}),
		declare("run_shell_command", "Executes a shell command and returns its output.", runShellCommandArgs{}),
	}
}

func declare(name, description string, args any) message.Declaration {
	schema, err := reflectSchema(args)
	if err != nil {
		// Reflection over package-local structs cannot fail at runtime; an
		// empty schema keeps the declaration usable if it ever does.
		schema = message.Schema{}
	}
	return message.Declaration{
		Name:        name,
		Description: description,
		Parameters:  schema,
	}
}

// reflectSchema builds a plain JSON schema map from a struct type. References
// are expanded inline because the wire formats have no use for $defs.
func reflectSchema(args any) (message.Schema, error) {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	schema := reflector.Reflect(args)
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal reflected schema")
	}

	var out message.Schema
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "failed to decode reflected schema")
	}

	// The reflector emits metadata keys the inference servers reject.
	delete(out, "$schema")
	delete(out, "$id")

	return out, nil
}
