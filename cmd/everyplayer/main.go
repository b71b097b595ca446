package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/rbolet/every-player/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
