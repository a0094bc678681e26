package main

import (
	"os"

	sanacmder "github.com/sanahealth/sana/cmd/sana"
)

func main() {
	cmd := sanacmder.NewSanaCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
