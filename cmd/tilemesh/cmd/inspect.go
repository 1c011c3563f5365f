package cmd

import (
	"fmt"

	"github.com/arl/tilemesh"
	"github.com/spf13/cobra"
)

var inspectCfgVal string

// inspectCmd represents the inspect command.
var inspectCmd = &cobra.Command{
	Use:   "inspect OBJFILE",
	Short: "build a tile from OBJ geometry and print its stats",
	Long: `Import OBJFILE into a single navmesh tile, install it, and
print the resulting polygon, vertex and link counts plus the tile's
bounds.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadBuildConfig(inspectCfgVal)
		check(err)

		nav, ref, err := loadMeshFromOBJ(args[0], cfg)
		check(err)

		tile, _, ok := nav.TileAndPolyByRef(ref)
		if !ok {
			check(fmt.Errorf("tile installed at %v is no longer valid", ref))
			return
		}

		fmt.Printf("tile (%d,%d) layer %d\n", tile.X, tile.Y, tile.Layer)
		fmt.Printf("  bounds: %v .. %v\n", tile.Bmin, tile.Bmax)
		fmt.Printf("  vertices: %d\n", len(tile.Verts)/3)
		fmt.Printf("  polygons: %d\n", len(tile.Polys))

		links := 0
		for i := range tile.Polys {
			j := tile.Polys[i].FirstLink
			for j != tilemesh.NullLink {
				links++
				link, ok := nav.Links().AtIndex(int32(j))
				if !ok {
					break
				}
				j = link.Next
			}
		}
		fmt.Printf("  links: %d\n", links)
	},
}

func init() {
	RootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectCfgVal, "config", "", "build settings file (defaults built in if omitted)")
}
