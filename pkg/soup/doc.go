// Package soup models the flat record collection ("soup") a board design is
// exchanged as: pcb_port, pcb_trace and source_trace records plus anything
// else a producer emits.
//
// Decoding is deliberately forgiving. A record with a malformed field still
// decodes with that field absent, and unknown record types are carried through
// untouched so a soup can be read, annotated and written back.
package soup
