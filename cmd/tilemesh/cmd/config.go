package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// BuildConfig is the YAML-serialized set of tunables shared by the
// inspect, query and serve-obstacles subcommands: how the mesh grid is
// sized, how the walkable volume around an agent is defined, and how
// fast the dynamic scheduler is allowed to rebuild a tile column.
type BuildConfig struct {
	// TileWidth and TileHeight are the world-space size, in the x/z
	// plane, of one grid cell.
	TileWidth  float32
	TileHeight float32

	MaxTiles int32
	MaxPolys int32
	MaxLinks int32

	// AgentHeight, AgentRadius and AgentMaxClimb mirror the walkable
	// volume fields every BuildTileParams needs.
	AgentHeight   float32
	AgentRadius   float32
	AgentMaxClimb float32

	// Scale is applied to every OBJ vertex on import.
	Scale float32

	// ThrottleMs bounds how often serve-obstacles will rebuild any one
	// tile column.
	ThrottleMs int
}

// DefaultBuildConfig returns the tunables used when no --config file is
// given.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		TileWidth: 10, TileHeight: 10,
		MaxTiles: 256, MaxPolys: 256, MaxLinks: 2048,
		AgentHeight: 2, AgentRadius: 0.5, AgentMaxClimb: 0.5,
		Scale:      1,
		ThrottleMs: 200,
	}
}

func loadBuildConfig(path string) (BuildConfig, error) {
	cfg := DefaultBuildConfig()
	if path == "" {
		return cfg, nil
	}
	if err := unmarshalYAMLFile(path, &cfg); err != nil {
		return BuildConfig{}, err
	}
	return cfg, nil
}

// configCmd represents the config command.
var configCmd = &cobra.Command{
	Use:   "config FILE",
	Short: "create a build settings file",
	Long: `Create a build settings file in YAML format, prefilled with
default values.

If FILE is not provided, 'tilemesh.yml' is used.`,
	Run: func(cmd *cobra.Command, args []string) {
		path := "tilemesh.yml"
		if len(args) >= 1 {
			path = args[0]
		}
		ok, err := confirmIfExists(path, fmt.Sprintf("file %q already exists, overwrite? [y/N]", path))
		if !ok {
			if err == nil {
				fmt.Println("aborted by user")
			} else {
				fmt.Println("aborted,", err)
			}
			return
		}

		check(marshalYAMLFile(path, DefaultBuildConfig()))
		fmt.Printf("build settings written to %q\n", path)
	},
}

func init() {
	RootCmd.AddCommand(configCmd)
}
