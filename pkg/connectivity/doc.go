// Package connectivity checks that the connections a schematic requires are
// actually realized by copper on the board.
//
// # Overview
//
// The check runs in four steps:
//  1. Index the soup into ports, traces and requirement groups
//  2. Resolve every trace against the ports and merge the ports it touches
//     into one class, using union-find
//  3. Resolve requirement groups (source_trace records) to sets of physical
//     ports, merging groups that share a net
//  4. Report each required port that is not in its set's class
//
// # Usage
//
//	s, err := soup.ParseFile("board.json")
//	if err != nil {
//		return err
//	}
//
//	report, err := connectivity.Check(s, connectivity.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	for _, e := range report.Errors {
//		fmt.Println(e.Message)
//	}
//
// # Endpoint Inference
//
// A trace that does not name the port it starts or ends on is matched by
// position: the first port closer than Config.Tolerance to the first segment
// (or the last segment) is taken. The inferred id is written into the
// annotated copy of the trace returned in Report.Traces and Report.Soup, so a
// second check of the annotated soup needs no inference and gives the same
// result. The input soup is never modified and may be shared between
// goroutines.
//
// # Unresolved References
//
// A segment reference to a port that does not exist is inert: it joins
// nothing. Such references are collected in Report.Dangling and, with
// Config.ReportDanglingReferences, reported as KindDanglingReference errors.
// Requirement entries that name no port on the board are ignored.
//
// # Performance
//
// Time complexity: O(P·T) for endpoint inference (P ports, T traces) plus
// near-linear union-find work.
package connectivity
