package main

import (
	"os"

	aikitcmder "github.com/chinmaymk/aikit-sub003/cmd/aikit"
)

func main() {
	cmd := aikitcmder.NewAikitCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
