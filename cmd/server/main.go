// Package main is the entry point for the newsletter server: the admin
// HTTP API plus the delivery and garbage-collection worker loops, all
// wired and supervised by internal/app.
package main

import (
	"flag"

	"newsletter/internal/app"
)

func main() {
	environment := flag.String("env", "local", "deployment environment: local|production")
	flag.Parse()

	app.New(*environment).Run()
}
