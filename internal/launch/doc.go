// Package launch starts installed games and tracks the single running one.
//
// A Supervisor owns at most one live Handle. The presentation loop calls
// Poll once per tick; Poll performs a non-blocking check for exit, clears
// the handle and runs the after-exit hook. Scripts are started through
// their interpreter, everything else is executed directly, and the child
// is detached into its own process group.
package launch
