// Command memsim replays memory reference traces through a simulated cache
// hierarchy.
package main

import "github.com/sarchlab/memhier/memsim/cmd"

func main() {
	cmd.Execute()
}
