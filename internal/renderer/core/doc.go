// Package core provides the value types shared by the surface and the
// terminal backends: colors, styles, cells and screen geometry.
// It has no dependencies on other scrivener packages.
package core
