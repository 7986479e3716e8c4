// Package compiler turns a loaded scene graph into declarative JSX source.
//
// The compiler is a single synchronous pass over one fully materialized
// [scene.Graph] and performs no I/O. It runs three deliberately separated
// whole-tree stages:
//
//  1. Walk: a single depth-first traversal producing an intermediate tree and
//     populating the geometry/material registries and the instancing
//     candidate set.
//  2. Prune: a bottom-up rewrite removing structurally empty wrapper nodes,
//     folding their transforms into the surviving child.
//  3. Emit: a pre-order traversal of the pruned tree synthesizing the output
//     text, honoring the instancing classes computed after the walk.
//
// The stages are not fused because pruning depends on fully resolved child
// results while emission depends on fully resolved dedup classes.
//
// Invocation-scoped mutable state (the identifier registry and the equivalence
// classes) is owned by the running compile and never escapes it, so separate
// compiles over separate graphs may run concurrently.
//
// # Usage
//
//	opts := compiler.DefaultOptions("duck.glb")
//	opts.Types = true
//	src, err := compiler.Compile(graph, opts)
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("Duck.tsx", []byte(src), 0o644)
package compiler
