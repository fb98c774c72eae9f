package tools_test

import (
	"io"
	"os"
	"testing"

	"github.com/petasbytes/toolchat/internal/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}
