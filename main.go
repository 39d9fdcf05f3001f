package main

import (
	"github.com/Digital-Shane/csv-notes/internal/cmd"
)

func main() {
	cmd.Execute()
}
