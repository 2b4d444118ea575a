// Package magetasks holds the developer tasks behind the Magefile. Test and
// coverage tasks drive the same runner and coverage engine the watcher uses.
package magetasks
