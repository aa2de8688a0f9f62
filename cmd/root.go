/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wildchain",
	Short: "Chain-download related artists from Deezer",
	Long: `wildchain walks the graph of related artists starting from a seed artist
on Spotify (or Last.fm) and downloads each artist's discography from Deezer
using an external downloader (deemix by default).

Traversal is breadth-first with bounded concurrency. Every finished artist is
recorded in a local history database, and the crawl tree is saved as a JSON
snapshot that can be rendered later with 'wildchain tree'.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
