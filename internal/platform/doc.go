// Package platform hides the operating-system differences the launcher cares
// about: permission bits, executable detection, and how child processes are
// detached. Unix uses access(2) and process groups; Windows decides by file
// extension and has no permission bits to set.
package platform
