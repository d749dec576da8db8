package main

import "comfyui-deps/internal/cli"

func main() {
	cli.Execute()
}
