package theme

import (
	"fmt"
)

// Banner returns the chirpd startup banner.
func Banner() string {
	const cyan = "\033[36m"
	const yellow = "\033[33m"
	const reset = "\033[0m"

	art := "" +
		"   🐦  " + cyan + "CHIRPD" + reset + "  🐦\n" +
		yellow + "  ────────────────────\n" + reset +
		"  an emoji-only micro-posting service\n"
	return art
}

// PrintBanner prints the banner to stdout.
func PrintBanner() {
	fmt.Print(Banner())
}
