package main

import (
	"github.com/mkarlin/mafiagame-go/internal/cli"
)

func main() {
	cli.Execute()
}
