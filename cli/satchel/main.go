package main

import (
	"os"

	satchelcmder "github.com/studyloop/satchel/cmd/satchel"
)

func main() {
	cmd := satchelcmder.NewSatchelCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
