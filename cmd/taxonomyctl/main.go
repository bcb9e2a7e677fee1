// Package main provides taxonomyctl, the administration tool for the taxonomy
// server's data directory.
//
// Usage:
//
//	taxonomyctl import seeds/countries.yaml
//	taxonomyctl token editor --grant countries --grant internal/teams
//	taxonomyctl ancestors countries europe/cz/prague
//	taxonomyctl reindex
package main

func main() {
	Execute()
}
