// Package scene holds the data model shared by every part of the relocation
// engine: content keys, entries, relocation commands and the per-container
// ordered content table.
//
// A Table keeps its entries sorted by ascending priority. Entries with equal
// priority keep the order in which they were first inserted, no matter how
// many unrelated re-sorts happen afterwards.
package scene
