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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sgkernel/go-subspace/hwy"
	"github.com/sgkernel/go-subspace/subspace"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show CPU dispatch and resolved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dispatch:      %s (%d-byte vectors)\n", hwy.CurrentName(), hwy.CurrentWidth())
			fmt.Fprintf(out, "float64 lanes: %d (max %d)\n", hwy.MaxLanes[float64](), hwy.MaxLaneCount)
			if hwy.NoSimdEnv() {
				fmt.Fprintln(out, "HWY_NO_SIMD is set: scalar lanes forced")
			}
			s := a.settings
			fmt.Fprintf(out, "grid:          dim=%d level=%d\n", s.Dim, s.Level)
			fmt.Fprintf(out, "kernel:        chunk=%d lanes=%d workers=%d list-ratio=%g list-size=%d max-subspace-bytes=%d\n",
				s.Kernel.ChunkWidth, s.Kernel.LaneWidth, s.Kernel.Workers,
				s.Kernel.ListRatio, s.Kernel.ListSize, s.Kernel.MaxSubspaceBytes)
			return nil
		},
	}
}

func printStats(cmd *cobra.Command, st subspace.Stats) {
	fmt.Fprintf(cmd.OutOrStdout(), "grid: %d points, %d subspaces (%d array, %d list), max level %d, %d dense bytes\n",
		st.Points, st.Subspaces, st.ArraySubspaces, st.ListSubspaces, st.MaxLevel, st.ArrayBytes)
}
