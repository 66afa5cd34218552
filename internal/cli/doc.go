// Package cli implements the credkeeper command line: one command per
// account operation, run once against the configured store.
//
// Commands:
//
//	register -email E -username U [-picture FILE]
//	login    -login L
//	passwd   -id ID
//	reset    -login L
//	verify   [-token T | T]
//	whois    -login L
//	avatar   set -id ID FILE | clear -id ID | url -id ID
//	version
//	help
//
// Passwords are prompted without echo when stdin is a terminal and read one
// per line otherwise. Prompts and errors go to stderr, results to stdout.
package cli
