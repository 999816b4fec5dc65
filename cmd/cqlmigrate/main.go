package main

import "github.com/aqasim81/cql-migrate/internal/cli"

func main() {
	cli.Execute()
}
