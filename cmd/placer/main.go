/*
Copyright 2025 The KCP Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"k8s.io/component-base/logs"
	"k8s.io/klog/v2"

	"github.com/kcp-dev/placer/cmd/placer/options"
)

func main() {
	logs.InitLogs()
	defer logs.FlushLogs()

	klog.InitFlags(nil)
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)

	command := newRootCommand(os.Stdout, os.Stderr)
	if err := command.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		logs.FlushLogs()
		os.Exit(1)
	}
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	opts := options.NewOptions()

	cmd := &cobra.Command{
		Use:   "placer",
		Short: "Decide which hosts the daemons of a service should run on",
		Long: `placer resolves the placement of a storage cluster service against an
inventory of hosts and running daemons. A placement names explicit hosts, a
host label or a host name pattern, optionally with a daemon count, for
example "3 label:mon" or "host1 host2 host3".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	opts.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newPlaceCommand(opts),
		newPlanCommand(opts),
		newValidateCommand(opts),
	)
	return cmd
}

func newPlaceCommand(opts *options.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "place",
		Short: "Print the hosts each service should run on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer r.dumpMetrics()
			return r.place()
		},
	}
}

func newPlanCommand(opts *options.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the daemons to create, remove and keep for each service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer r.dumpMetrics()
			return r.plan()
		},
	}
}

func newValidateCommand(opts *options.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Parse and validate a placement or a service spec file without an inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.ValidateSpecOnly(); err != nil {
				return err
			}
			return validate(opts, cmd.OutOrStdout())
		},
	}
}
