// Package condition builds and evaluates the boolean expressions used by
// conditional placeholders such as
//
//	${If and:[{$kind:"invoice"}, {not:{*customer.blocked:true}}]}
//
// Field names go through the usual access prefixes, so a comparison can
// read a variable ($name), a model path (*path) or an indirect variable
// ($$name). Resolution is left to the caller through a Resolver.
package condition
