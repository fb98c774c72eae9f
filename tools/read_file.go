package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/petasbytes/toolchat/internal/logger"
	"github.com/petasbytes/toolchat/internal/metrics"
)

type ReadFileInput struct {
	FilePath string `json:"filePath" jsonschema_description:"Path of the file to read, relative or absolute."`
}

// ReadFileLabel prefixes the content returned by read_file.
const ReadFileLabel = "File content:\n"

var ReadFileDefinition = ToolDefinition{
	Name: "read_file",
	Description: `Read the full text content of a file. Use this tool whenever the user asks to read a file, look at code, or analyse file contents.

Accepts a relative or absolute file path.`,
	InputSchema: ReadFileInputSchema,
	Function:    ReadFile,
}

var ReadFileInputSchema = GenerateSchema[ReadFileInput]()

// ReadFile returns the whole file with ReadFileLabel prepended. There is no
// size cap and no path restriction beyond host permissions.
func ReadFile(ctx context.Context, input json.RawMessage) (string, error) {
	var in ReadFileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", err
	}
	if in.FilePath == "" {
		return "", fmt.Errorf("filePath is empty")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fi, err := os.Stat(in.FilePath)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return "", fmt.Errorf("%s is a directory", in.FilePath)
	}

	b, err := os.ReadFile(in.FilePath)
	if err != nil {
		return "", err
	}
	content := string(b)
	logger.Named("tools").WithFields(metrics.Measure(content).Fields("")).Infof("read_file(%q) - read %d bytes", in.FilePath, len(b))
	return ReadFileLabel + content, nil
}
