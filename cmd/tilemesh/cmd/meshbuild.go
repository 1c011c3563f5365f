package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arl/gogeo/f32/d3"
	"github.com/arl/tilemesh"
	"github.com/arl/tilemesh/objimport"
)

// loadMeshFromOBJ imports objPath as a single tile anchored at its own
// bounds, and installs it into a fresh NavMesh sized by cfg.
func loadMeshFromOBJ(objPath string, cfg BuildConfig) (*tilemesh.NavMesh, tilemesh.NodeRef, error) {
	params, err := objparams(objPath, cfg)
	if err != nil {
		return nil, 0, err
	}

	nav, status := tilemesh.NewNavMesh(params.Bmin, cfg.TileWidth, cfg.TileHeight, cfg.MaxTiles, cfg.MaxPolys, cfg.MaxLinks)
	if tilemesh.Failed(status) {
		return nil, 0, fmt.Errorf("tilemesh: new navmesh: %s", status.Error())
	}

	tile, status := tilemesh.BuildTile(params)
	if tilemesh.Failed(status) {
		return nil, 0, fmt.Errorf("tilemesh: build tile: %s", status.Error())
	}

	status, ref := nav.AddTile(tile, -1)
	if tilemesh.Failed(status) {
		return nil, 0, fmt.Errorf("tilemesh: add tile: %s", status.Error())
	}
	return nav, ref, nil
}

func objparams(objPath string, cfg BuildConfig) (*tilemesh.BuildTileParams, error) {
	opts := objimport.DefaultOptions()
	opts.Scale = cfg.Scale
	opts.WalkableHeight = cfg.AgentHeight
	opts.WalkableRadius = cfg.AgentRadius
	opts.WalkableClimb = cfg.AgentMaxClimb
	opts.BuildBVTree = true
	return objimport.Load(objPath, opts)
}

// parseVec3 parses "x,y,z" into a d3.Vec3.
func parseVec3(s string) (d3.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return d3.Vec3{}, fmt.Errorf("expected \"x,y,z\", got %q", s)
	}
	var v d3.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return d3.Vec3{}, fmt.Errorf("parsing %q: %w", s, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}
