// Copyright © 2025 The typls authors

package main

import "github.com/typls/typls/cmd"

func main() {
	cmd.Execute()
}
