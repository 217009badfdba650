// Command cargo-apfs-compress compresses cargo build directories with APFS
// transparent compression. Installed on PATH it runs as `cargo apfs-compress`.
package main

import (
	"fmt"
	"os"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/cli"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := cli.ExecuteWithVersion(version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
