package main

import (
	"os"

	"github.com/unmolkumar/school-ai-bav/internal/cli"
)

func main() {
	os.Exit(int(cli.Run()))
}
