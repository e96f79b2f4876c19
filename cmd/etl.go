// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.
package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/pilosa/sparkify/etl"
	"github.com/spf13/cobra"
)

// ETLMain is wrapped by NewETLCommand. It is exported for testing purposes.
var ETLMain *etl.Main

// NewETLCommand wraps etl.Main with cobra.Command for use from a CLI.
func NewETLCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	ETLMain = etl.NewMain()
	ETLMain.SetStderr(stderr)
	etlCommand := &cobra.Command{
		Use:   "etl",
		Short: "Build the star schema tables from song and log data.",
		Long: `Reads song_data and log_data under the input location, joins
song plays against the catalog, and writes the songs, artists,
users, time and songplays tables as Parquet under the output
location. Tables are replaced on every run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ETLMain.Run()
		},
	}
	flags := etlCommand.Flags()
	err := commandeer.Flags(flags, ETLMain)
	if err != nil {
		panic(err)
	}
	return etlCommand
}

func init() {
	subcommandFns["etl"] = NewETLCommand
}
