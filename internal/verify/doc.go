// Package verify checks persisted clips after the fact. A pass stops at the
// first bad clip since any failure points at upstream corruption.
package verify
