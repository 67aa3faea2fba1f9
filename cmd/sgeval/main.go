// Copyright 2025 go-subspace Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command sgeval benchmarks and checks the subspace evaluation kernel on
// regular sparse grids.
//
// Usage:
//
//	sgeval info
//	sgeval bench --dim 4 --level 6 --rows 100000
//	sgeval check --dim 3 --level 5 --lanes 1
//	sgeval fit --dim 2 --level 6 --lambda 1e-4
//
// Settings come from an optional YAML file (--config), then SGEVAL_*
// environment variables, then flags.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
