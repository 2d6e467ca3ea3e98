package main

import (
	"os"

	"github.com/sakina-app/sakina-server/analysisworker"
)

func main() {
	if err := analysisworker.Run(); err != nil {
		os.Exit(1)
	}
}
