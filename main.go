/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/onai/SMTexperiments/cmd"

func main() {
	cmd.Execute()
}
