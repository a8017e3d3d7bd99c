// Package ast is the structural view of one service package as the host
// compiler hands it to the contract checks: files, imports, listeners,
// services and their member functions, with spans for every piece a
// diagnostic can point at.
//
// Values are built once by the loader and treated as immutable afterwards;
// checks only read them, so a Package can be shared between goroutines.
package ast
