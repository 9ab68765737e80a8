package main

import (
	"percy-figma/cmd" // CLI commands and execution logic
)

// main is the program entry point. It delegates to cmd.Execute().
//
// percy-figma bridges Figma and Percy visual testing:
//   - Reads percyFigma.yml (or --config) for the Figma tokens and node ids to snapshot
//   - Asks the Figma images API to render those nodes to PNG
//   - Downloads every PNG concurrently into a scratch folder
//   - Runs `npx percy upload` on the folder and removes it afterwards
//
// Error handling strategy:
//   - Config and API errors stop the run before anything is downloaded
//   - A failed image download is logged and the remaining images are still uploaded
//   - The scratch folder is removed whether or not the upload succeeded
func main() {
	cmd.Execute()
}
