package cmd

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/arl/tilemesh"
	"github.com/arl/tilemesh/dynamic"
	yaml "gopkg.in/yaml.v2"

	"github.com/spf13/cobra"
)

var (
	obstaclesCfgVal    string
	obstaclesScriptVal string
)

// obstacleSpec is one obstacle present from t=0.
type obstacleSpec struct {
	Pos    string  `yaml:"pos"`
	Radius float32 `yaml:"radius"`
}

// moveSpec mutates an obstacle at a simulated offset from t=0.
type moveSpec struct {
	AtMs     int    `yaml:"at_ms"`
	Obstacle int    `yaml:"obstacle"`
	Pos      string `yaml:"pos"`
	Remove   bool   `yaml:"remove"`
}

type obstacleScript struct {
	Obstacles []obstacleSpec `yaml:"obstacles"`
	Moves     []moveSpec     `yaml:"moves"`
}

// obstaclesCmd represents the serve-obstacles command.
var obstaclesCmd = &cobra.Command{
	Use:   "serve-obstacles OBJFILE",
	Short: "replay an obstacle script against an imported tile",
	Long: `Import OBJFILE as the static geometry of one tile column, then
replay --script: each obstacle move drives a dynamic.Scheduler, which
rebuilds the column through a pipeline that blocks off polygons within
an obstacle's radius, printing one line per scripted move (rebuild=
reports whether that move's Tick succeeded).`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadBuildConfig(obstaclesCfgVal)
		check(err)

		params, err := objparams(args[0], cfg)
		check(err)

		nav, status := tilemesh.NewNavMesh(params.Bmin, cfg.TileWidth, cfg.TileHeight, cfg.MaxTiles, cfg.MaxPolys, cfg.MaxLinks)
		if tilemesh.Failed(status) {
			check(fmt.Errorf("tilemesh: new navmesh: %s", status.Error()))
		}
		tile, status := tilemesh.BuildTile(params)
		if tilemesh.Failed(status) {
			check(fmt.Errorf("tilemesh: build tile: %s", status.Error()))
		}
		if status, _ = nav.AddTile(tile, -1); tilemesh.Failed(status) {
			check(fmt.Errorf("tilemesh: add tile: %s", status.Error()))
		}

		buf, err := os.ReadFile(obstaclesScriptVal)
		check(err)
		var script obstacleScript
		check(yaml.Unmarshal(buf, &script))

		throttle := time.Duration(cfg.ThrottleMs) * time.Millisecond
		pipeline := &blockingPipeline{base: params}
		sched := dynamic.NewScheduler(nav, pipeline, throttle)

		ids := make([]dynamic.ObstacleID, len(script.Obstacles))
		for i, o := range script.Obstacles {
			pos, err := parseVec3(o.Pos)
			check(err)
			ids[i] = sched.AddObstacle(pos, o.Radius)
		}

		moves := script.Moves
		sort.Slice(moves, func(i, j int) bool { return moves[i].AtMs < moves[j].AtMs })

		base := time.Now()
		for _, mv := range moves {
			if mv.Obstacle < 0 || mv.Obstacle >= len(ids) {
				check(fmt.Errorf("move references unknown obstacle %d", mv.Obstacle))
			}
			now := base.Add(time.Duration(mv.AtMs) * time.Millisecond)
			if mv.Remove {
				sched.RemoveObstacle(ids[mv.Obstacle])
			} else {
				pos, err := parseVec3(mv.Pos)
				check(err)
				sched.SetObstaclePose(ids[mv.Obstacle], pos, true)
			}
			status := sched.Tick(now)
			if tilemesh.Failed(status) {
				check(fmt.Errorf("tick at %dms: %s", mv.AtMs, status.Error()))
			}
			fmt.Printf("t=%dms obstacle=%d rebuild=%v\n", mv.AtMs, mv.Obstacle, tilemesh.Succeeded(status))
		}
	},
}

func init() {
	RootCmd.AddCommand(obstaclesCmd)
	obstaclesCmd.Flags().StringVar(&obstaclesCfgVal, "config", "", "build settings file (defaults built in if omitted)")
	obstaclesCmd.Flags().StringVar(&obstaclesScriptVal, "script", "", "obstacle script file, YAML (required)")
	obstaclesCmd.MarkFlagRequired("script")
}

// blockingPipeline rebuilds a tile column from its original static
// geometry, blocking off every polygon whose centroid falls within an
// occupying obstacle's radius by zeroing its area and flags.
type blockingPipeline struct {
	base *tilemesh.BuildTileParams
}

func (p *blockingPipeline) BuildTile(tileX, tileY int32, occupants []dynamic.Obstacle) (tilemesh.Tile, tilemesh.Status) {
	params := *p.base
	params.X, params.Y = tileX, tileY

	areas := make([]uint8, len(p.base.PolyAreas))
	copy(areas, p.base.PolyAreas)
	flags := make([]uint16, len(p.base.PolyFlags))
	copy(flags, p.base.PolyFlags)

	for i, pv := range p.base.PolyVerts {
		cx, cz := polyCentroidXZ(p.base.Verts, pv)
		for _, o := range occupants {
			dx := cx - o.Pos[0]
			dz := cz - o.Pos[2]
			if dx*dx+dz*dz <= o.Radius*o.Radius {
				areas[i] = 0
				flags[i] = 0
				break
			}
		}
	}
	params.PolyAreas = areas
	params.PolyFlags = flags
	return tilemesh.BuildTile(&params)
}

func polyCentroidXZ(verts []float32, pv [tilemesh.VertsPerPoly]uint16) (float32, float32) {
	var sx, sz float32
	n := 0
	for _, idx := range pv {
		if idx == 0xffff {
			break
		}
		sx += verts[int(idx)*3]
		sz += verts[int(idx)*3+2]
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sx / float32(n), sz / float32(n)
}
