/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/oggmux/oggmux/cmd/oggmux/cmd"
)

func main() {
	cmd.Execute()
}
