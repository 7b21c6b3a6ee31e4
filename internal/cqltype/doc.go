// Package cqltype models the CQL column type system as a closed set of
// descriptors.
//
// A Descriptor is built once per column when the table catalog is described
// and never changes afterwards. Converters in the marshal package switch over
// the five variants exhaustively:
//
//	Scalar{Kind}      uuid, bigint, boolean, decimal, ... date
//	List{Elem}        list<elem>
//	Set{Elem}         set<elem>
//	Map{Key, Value}   map<key, value>
//	Tuple{Elems}      tuple<a, b, ...>
//
// The frozen<...> wrapper carries no meaning for conversion and is dropped by
// Parse.
package cqltype
