package main

import (
	"os"

	"github.com/storyarc/storyarc/storyarcservice"
)

func main() {
	if err := storyarcservice.Run(); err != nil {
		os.Exit(1)
	}
}
