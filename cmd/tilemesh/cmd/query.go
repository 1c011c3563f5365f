package cmd

import (
	"fmt"

	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/tilemesh"
	"github.com/arl/tilemesh/query"
	"github.com/spf13/cobra"
)

var (
	queryCfgVal        string
	queryStartVal      string
	queryEndVal        string
	queryHalfExtentVal string
)

// queryCmd represents the query command.
var queryCmd = &cobra.Command{
	Use:   "query OBJFILE",
	Short: "find a path between two points on an imported tile",
	Long: `Import OBJFILE into a single navmesh tile, then run
findNearestPoly on --start and --end followed by findPath and
findStraightPath, printing the resulting straight path.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadBuildConfig(queryCfgVal)
		check(err)

		nav, _, err := loadMeshFromOBJ(args[0], cfg)
		check(err)

		start, err := parseVec3(queryStartVal)
		check(err)
		end, err := parseVec3(queryEndVal)
		check(err)
		halfExtents, err := parseVec3(queryHalfExtentVal)
		check(err)

		q, status := query.NewNavMeshQuery(nav, 2048)
		if tilemesh.Failed(status) {
			check(fmt.Errorf("new query: %s", status.Error()))
		}
		filter := tilemesh.NewStandardQueryFilter()

		startRef, startPos, status := q.FindNearestPoly(start, halfExtents, filter)
		if tilemesh.Failed(status) {
			check(fmt.Errorf("find nearest poly to start: %s", status.Error()))
		}
		endRef, endPos, status := q.FindNearestPoly(end, halfExtents, filter)
		if tilemesh.Failed(status) {
			check(fmt.Errorf("find nearest poly to end: %s", status.Error()))
		}

		path := make([]tilemesh.NodeRef, 256)
		n, status := q.FindPath(startRef, endRef, startPos, endPos, filter, path)
		if tilemesh.Failed(status) {
			check(fmt.Errorf("find path: %s", status.Error()))
		}
		path = path[:n]

		straight := make([]d3.Vec3, 256)
		flags := make([]query.StraightPathFlags, 256)
		refs := make([]tilemesh.NodeRef, 256)
		ns, status := q.FindStraightPath(startPos, endPos, path, straight, flags, refs, 0)
		if tilemesh.Failed(status) {
			check(fmt.Errorf("find straight path: %s", status.Error()))
		}

		if tilemesh.HasDetail(status, tilemesh.PartialResult) {
			fmt.Println("partial result: end not reached")
		}
		fmt.Printf("%d polygons, %d straight path points:\n", n, ns)
		for i := 0; i < ns; i++ {
			fmt.Printf("  %v\n", straight[i])
		}
	},
}

func init() {
	RootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryCfgVal, "config", "", "build settings file (defaults built in if omitted)")
	queryCmd.Flags().StringVar(&queryStartVal, "start", "", "start point, \"x,y,z\" (required)")
	queryCmd.Flags().StringVar(&queryEndVal, "end", "", "end point, \"x,y,z\" (required)")
	queryCmd.Flags().StringVar(&queryHalfExtentVal, "half-extents", "1,2,1", "search half-extents around start/end, \"x,y,z\"")
	queryCmd.MarkFlagRequired("start")
	queryCmd.MarkFlagRequired("end")
}
