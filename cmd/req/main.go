package main

import (
	"os"

	"github.com/bmcszk/go-req/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
