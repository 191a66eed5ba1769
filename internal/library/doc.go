// Package library ties the launcher together. Tracker derives installed
// state from the install root, Installer runs the download, extract,
// resolve and rename pipeline, and Library is the controller the front ends
// drive with abstract commands.
//
// A game is installed exactly when a directory of its name exists under the
// install root. Installs are staged under the hidden .staging directory and
// renamed into place only once they are complete, so an interrupted install
// never looks installed.
package library
