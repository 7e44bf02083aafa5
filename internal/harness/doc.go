// Package harness runs query scenarios against snapshot fixtures.
//
// A scenario imports one fixture into a private in-memory snapshot store,
// executes its queries through a wmiq.Connection served by the snapshot
// provider, and checks each query's expectations. The canonical rendering
// of every result can be compared with a golden file.
//
// # Scenario Format
//
//	name: process_inventory
//	description: "Processes spawned by the kernel"
//	fixture: ../fixtures/inventory.yaml
//	queries:
//	  - name: kernel_children
//	    wql: SELECT Name FROM Win32_Process WHERE ParentProcessId = 0
//	    expect:
//	      count: 2
//	      rows:
//	        - { Name: System Idle Process }
//	  - name: built
//	    class: Win32_Process
//	    fields: [Name, ProcessId]
//	    where: { ParentProcessId: 0 }
//	    expect:
//	      query: SELECT Name,ProcessId FROM Win32_Process WHERE ParentProcessId = 0
//	  - name: garbage
//	    wql: "42"
//	    expect:
//	      error: { kind: ENUMERATION_FAILED, status: WBEM_E_INVALID_QUERY }
//
// Queries are given either as WQL text or as class, fields and where, in
// which case the text comes from wmiq.BuildQuery. where values map to
// filter values by YAML type: booleans to Bool, integers to Number and
// everything else to Str.
//
// # Expectations
//
//   - query: the executed text must match exactly
//   - count: number of rows returned
//   - rows: subset match, row by row; only listed properties are compared
//   - error: the query must fail with this kind and, if given, status
//
// A query without an error expectation must succeed. Every scenario also
// checks that all provider handles were released exactly once.
//
// # Deterministic Testing
//
// The snapshot gets a sequential ID and a timestamp from a deterministic
// clock, and rows render as canonical JSON, so the same scenario always
// renders the same golden output.
package harness
