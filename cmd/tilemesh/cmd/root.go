package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "tilemesh",
	Short: "inspect and query tiled navigation meshes",
	Long: `tilemesh builds a navmesh tile from OBJ geometry, inspects it,
runs pathfinding queries against it, and can drive a dynamic obstacle
scheduler against the result — all in-process, since this module has no
on-disk navmesh format of its own.`,
}

// Execute adds all child commands to the root command and runs it. This
// is called by main.main, once.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
