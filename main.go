package main

import (
	"os"

	"github.com/user/autorecon/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
