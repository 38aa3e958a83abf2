package main

import (
	cmd "github.com/kerbaras/mangasync/cmd/mangas"
)

func main() {
	cmd.Execute()
}
