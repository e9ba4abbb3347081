// Package bitemporal implements the temporal repository runtime that
// generated repositories call into.
//
// A logical record is a chain of physical rows. Each row covers the
// rectangle [business from, business thru) x [processing from,
// processing thru) and the rectangles of one record never overlap, so at
// most one row answers an as-of lookup. A row whose processing interval
// ends at Infinity is the currently known version. Updates and
// terminations never rewrite history: they retire the affected current
// rows and insert their replacements in one unit of work.
//
// Rows are persisted through a Store. MemoryStore keeps them in memory;
// package sqlstore persists them through dialect/sql.
package bitemporal
