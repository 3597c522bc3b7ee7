package main

import (
	"log"

	"codeberg.org/miketth/layoutfix/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatalf("error: %+v", err)
	}
}
