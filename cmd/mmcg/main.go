// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Command mmcg drives CgEvolver against the synthetic quadratic.Zeeman
// test problem from the command line, exercising the minimizer the same
// way a real driver would: repeated Step calls until convergence or a
// cycle budget is exhausted.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
