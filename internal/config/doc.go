// Package config loads the tuning constants of the rendering engine.
//
// Configuration is layered, with later layers overriding earlier ones:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← Highest priority
//	├─────────────────────────────┤
//	│  2. Config Files            │  ← TOML or YAML, in the order given
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// A file only needs the keys it changes:
//
//	# scrivener.toml
//	[viewport]
//	margin = 1500
//
//	[heights]
//	line_wrapping = true
//
// A Watcher reloads the layers when one of the files changes and delivers
// the validated result on a channel.
package config
