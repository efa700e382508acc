// Command crimescope trains regression models that relate the economy of
// RIDE/DF municipalities to their crime victims and serves a dashboard over
// the data and the best model.
package main

import "github.com/YuminosukeSato/crimescope/cmd"

func main() {
	cmd.Execute()
}
