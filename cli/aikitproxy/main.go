package main

import (
	"fmt"
	"os"

	servecmder "github.com/chinmaymk/aikit-sub003/cmd/aikit/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()

	cmd.Use = "aikitproxy"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .aikit/ config directory")

	err := cmd.Execute()
	if err != nil {
		fmt.Printf("Error executing root command: %v\n", err)
		os.Exit(1)
	}
}
