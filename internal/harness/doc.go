// Package harness runs select-compilation scenarios and compares their
// output against golden files.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	table:
//	  keyspace: ks
//	  name: events
//	  partition_key: [pk]
//	  clustering_key: [ck]
//	  columns:
//	    - {name: pk, type: text}
//	    - {name: ck, type: int}
//	  indexes:
//	    - {name: body_idx, target: body, class: org.apache.cassandra.index.sasi.SASIIndex}
//	options:
//	  limit: 10
//	  allow_filtering: false
//	steps:
//	  - name: by_key
//	    columns: [body]
//	    predicates:
//	      - {field: pk, op: "=", value: a}
//	    expect:
//	      statement: SELECT ...
//	      dropped: [body]
//
// Every expect field is optional. Dropped lists the fields of the
// predicates left to the caller, in order.
//
// # Golden Files
//
// RunWithGolden renders the path keys and every step as text and compares
// the result with testdata/golden/{name}.golden. To regenerate:
//
//	go test ./internal/harness -update
package harness
