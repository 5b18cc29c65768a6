package main

import "alize_backend/internal/app"

func main() {
	app.Run()
}
