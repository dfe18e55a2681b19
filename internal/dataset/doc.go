// Package dataset discovers ParaVision acquisition directories.
//
// A dataset is a directory carrying a fixed signature of marker files and
// marker subdirectories. The Scanner walks a root within depth bounds,
// follows symlinked directories, reports each resolved directory once and
// extracts the subject metadata and run directories of every match.
package dataset
