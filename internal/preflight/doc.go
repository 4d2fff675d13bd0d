// Package preflight provides readiness checks for the catalog and the
// filesystem paths subfetch writes to.
//
// The fetch and watch commands check the state directory before taking the
// run lock; "subfetch config validate --check" runs every check and prints
// the results.
package preflight
