// Package fileutil holds small filesystem helpers shared by the dataset
// writers.
package fileutil
