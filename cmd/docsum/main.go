package main

import (
	"os"

	"github.com/feichai0017/document-summarizer/cmd/docsum/commands"
)

func main() {
	os.Exit(commands.Execute())
}
