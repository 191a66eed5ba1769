// Package resolver finds the file to launch inside an extracted game
// directory. The policy is an ordered list of rules; the first rule that
// matches wins, and every rule visits directory entries in lexical order so
// the answer is deterministic.
package resolver
