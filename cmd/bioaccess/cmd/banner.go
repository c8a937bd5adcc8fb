package cmd

import (
	"github.com/fatih/color"
)

const banner = `
  ____  _          _
 | __ )(_) ___    / \    ___ ___ ___  ___ ___
 |  _ \| |/ _ \  / _ \  / __/ __/ _ \/ __/ __|
 | |_) | | (_) |/ ___ \| (_| (_|  __/\__ \__ \
 |____/|_|\___//_/   \_\\___\___\___||___/___/
`

func printBanner() {
	color.Blue("%s", banner)
	color.Green("  Facial-Biometric Access Authority - Version %s\n", Version)
}
