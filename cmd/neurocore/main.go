package main

import (
	"log"

	"github.com/danielpatrickdp/neurocore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("neurocore: %v", err)
	}
}
