// Package preflight provides readiness checks for the external tools and
// filesystem paths subclip depends on.
//
// The harvest command runs RunAll before touching the network and refuses to
// start when a required check fails. The check command prints every result.
package preflight
