// Package restorer contains code to restore the chunks of a snapshot into an
// edit target.
package restorer
