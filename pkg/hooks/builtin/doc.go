// Package builtin ships ready-made hook implementations for common
// cross-cutting concerns: catalog logging, per-node gating, load timing,
// data validation, metrics emission, run tracking, input replacement and
// webhook forwarding. Each implements only the lifecycle events it needs.
package builtin
