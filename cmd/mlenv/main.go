// Copyright (c) 2026 Mlenv and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"os"

	"github.com/mlenv/mlenv/internal/cli"
)

func main() {
	app := cli.New()
	os.Exit(app.Run(os.Args[1:]...))
}
