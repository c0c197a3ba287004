package main

import (
	"github.com/ogulcanaydogan/traffic-guardian/internal/cli"
)

func main() {
	cli.Execute()
}
