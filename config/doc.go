// Package config defines the geometry of an image and loads it from CUE,
// JSON or YAML sources.
//
// Every source is unified with an embedded CUE schema (schema.cue) that
// supplies defaults and bounds, so a file only needs to name the values it
// changes:
//
//	loader := config.NewLoader(hostfs.NewLocal("/"))
//	geom, err := loader.Load(ctx, "/etc/imagefs/geometry.yaml")
//
// Validate applies the same schema to a Geometry built in Go.
package config
