package main

import (
	"context"

	"github.com/cube2222/rtsql/cmd"
)

func main() {
	cmd.Execute(context.Background())
}
