/*
Package dsl provides a fluent builder for authoring flow graphs in Go.

It is the programmatic alternative to flow files: tests and embedded
setups can declare a graph without hand-writing node and edge literals.

	b := dsl.New()
	b.Add("start").Start().Say("Welcome!").Go("q1")
	b.Add("q1").Question("yes").Say("Ready?").Match("end", "yes")
	b.Add("end").End().Say("Done.")
	nodes, edges := b.Build()

Edge ids are assigned in declaration order, so Build output is
deterministic.
*/
package dsl
