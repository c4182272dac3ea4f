// Package textutil provides text helpers for turning summary titles into safe
// file names.
package textutil
