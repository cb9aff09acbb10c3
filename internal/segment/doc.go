// Package segment groups consecutive subtitle cues into clips long enough to
// train on.
package segment
