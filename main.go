package main

import "contact-scraper/cmd"

func main() {
	cmd.Execute()
}
