/*
 *  main.go
 *  cmd
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package main

import (
	"log"

	"github.com/op/go-logging"
	"github.com/tanghaibao/tfbayes"
)

// main is the entrypoint for the entire program, routes to commands
func main() {
	logging.SetBackend(tfbayes.BackendFormatter)
	err := tfbayes.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
