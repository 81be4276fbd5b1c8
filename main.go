/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"log"
	"os"

	"github.com/humaidq/labranges/cmd"
	"github.com/humaidq/labranges/logging"
)

func main() {
	logging.Init()

	if err := cmd.NewApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
