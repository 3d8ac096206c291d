// Package nudge provides catalog-driven in-product message selection.
//
// The core code is in package 'core', storage backends are in
// 'storage', expression interpreters are in 'interpreters', catalog
// delivery is in 'sio', the HTTP service is in 'service', catalog
// reports are in 'tools', and the command-line tools are in `cmd`.
package nudge
